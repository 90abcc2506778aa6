// messages.go - тексты ответов API. Клиенты сопоставляют их дословно.
package service

const (
	msgAutoRotateOff = "TO BE IMPLEMENTED: Auto-Rotate of password has been turned off and this is yet to be implemented"
	msgTTLExceedsMax = "ttl can't be more than max_ttl"

	msgOnboardSuccess = "Successfully completed onboarding of AD service account into TVault for password rotation."
	msgOnboardFailed  = "Failed to onboard AD service account into TVault for password rotation."
	msgOnboardPartial = "Successfully created Service Account Role and policies. However the association of owner information failed."

	msgOffboardSuccess = "Successfully completed offboarding of AD service account from TVault for password rotation."
	msgOffboardFailed  = "Failed to offboard AD service account from TVault for password rotation."

	msgNotAuthorized    = "Not authorized to perform"
	msgInvalidAccess    = "Invalid value specified for access. Valid values are read, write, deny"
	msgUserAdded        = "Successfully added user to the Service Account"
	msgUserAddFailed    = "Failed to add user to the Service Account"
	msgUserRemoved      = "Successfully removed user from the Service Account"
	msgUserRemoveFailed = "Failed to remove the user from the Service Account"

	msgRoleCreated    = "Successfully created Service Account Role"
	msgRoleDeleted    = "Successfully deleted Service Account Role"
	msgPolicyCreated  = "Successfully created policies for Service Account"
	msgPolicyDeleted  = "Successfully deleted policies for Service Account"
	msgMembershipDone = "Successfully updated policies of the user"

	msgNotOnboarded       = "Either Service Account is not onboarded or you don't have enough permission to read"
	msgNonAdminList       = "TO BE IMPLEMENTED for non admin user"
	msgUpstreamNoResponse = "Unable to complete the request: TVault did not respond"
)
