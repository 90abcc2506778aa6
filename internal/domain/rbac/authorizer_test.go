package rbac

import (
	"testing"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

func TestAdminOnly_CanAddOrRemoveUser(t *testing.T) {
	req := &model.ServiceAccountUser{AccountName: "svcacc01", Username: "user02", Access: model.AccessRead}

	tests := []struct {
		name   string
		caller model.Caller
		action string
		want   bool
	}{
		{name: "admin, addUser", caller: model.Caller{Username: "admin", IsAdmin: true}, action: ActionAddUser, want: true},
		{name: "admin, removeUser", caller: model.Caller{Username: "admin", IsAdmin: true}, action: ActionRemoveUser, want: true},
		{name: "admin, неизвестное действие", caller: model.Caller{IsAdmin: true}, action: "rename", want: true},
		{name: "не admin, addUser", caller: model.Caller{Username: "user01"}, action: ActionAddUser, want: false},
		{name: "не admin, removeUser", caller: model.Caller{Username: "user01"}, action: ActionRemoveUser, want: false},
		{name: "не admin, пустое действие", caller: model.Caller{}, action: "", want: false},
	}

	var authz MembershipAuthorizer = AdminOnly{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := authz.CanAddOrRemoveUser(tt.caller, req, tt.action)
			if got != tt.want {
				t.Errorf("CanAddOrRemoveUser(isAdmin=%v, %q) = %v, хотели %v",
					tt.caller.IsAdmin, tt.action, got, tt.want)
			}
		})
	}
}
