package rbac

import "github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"

// Действия над участниками service account.
const (
	ActionAddUser    = "addUser"
	ActionRemoveUser = "removeUser"
)

// MembershipAuthorizer решает, может ли вызывающий менять участников
// service account.
type MembershipAuthorizer interface {
	CanAddOrRemoveUser(caller model.Caller, req *model.ServiceAccountUser, action string) bool
}

// AdminOnly - разрешает изменения только администраторам.
// action не различается.
type AdminOnly struct{}

// CanAddOrRemoveUser реализует MembershipAuthorizer.
func (AdminOnly) CanAddOrRemoveUser(caller model.Caller, _ *model.ServiceAccountUser, _ string) bool {
	return caller.IsAdmin
}
