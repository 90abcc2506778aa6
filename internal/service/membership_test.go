package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

func newTestMembership(t *testing.T, authMethod string) (*MembershipManager, *fakeUsers) {
	t.Helper()
	catalog, err := LoadPolicyCatalog()
	if err != nil {
		t.Fatalf("LoadPolicyCatalog: %v", err)
	}
	users := newFakeUsers()
	backend, err := NewMembershipBackend(authMethod, users)
	if err != nil {
		t.Fatalf("NewMembershipBackend: %v", err)
	}
	return NewMembershipManager(backend, catalog, testLogger()), users
}

func TestNewMembershipBackend_Unknown(t *testing.T) {
	if _, err := NewMembershipBackend("oidc", newFakeUsers()); err == nil {
		t.Error("ожидается ошибка для неизвестного метода")
	}
}

func TestMembership_AddUser_LDAP(t *testing.T) {
	m, users := newTestMembership(t, "ldap")
	users.ldap["testacc01"] = &vault.AuthUser{
		Policies: []string{"default"},
		Groups:   []string{"admin"},
	}

	resp := m.AddUser(context.Background(), adminCaller(), "testacc02", "testacc01", "read")

	assertResponse(t, resp, http.StatusOK, `{"messages":["`+msgMembershipDone+`"]}`)
	got := users.ldap["testacc01"]
	if !slices.Equal(got.Policies, []string{"default", "r_svcacct_testacc02"}) {
		t.Errorf("Policies = %v", got.Policies)
	}
	if !slices.Equal(got.Groups, []string{"admin"}) {
		t.Errorf("Groups = %v, группы должны сохраняться", got.Groups)
	}
}

func TestMembership_AddUser_Idempotent(t *testing.T) {
	m, users := newTestMembership(t, "ldap")
	users.ldap["testacc01"] = &vault.AuthUser{Policies: []string{"default", "w_svcacct_testacc02"}}

	m.AddUser(context.Background(), adminCaller(), "testacc02", "testacc01", "write")

	got := users.ldap["testacc01"].Policies
	if !slices.Equal(got, []string{"default", "w_svcacct_testacc02"}) {
		t.Errorf("Policies = %v, политика не должна дублироваться", got)
	}
}

func TestMembership_AddUser_UnknownUser(t *testing.T) {
	m, users := newTestMembership(t, "userpass")

	resp := m.AddUser(context.Background(), adminCaller(), "testacc02", "testacc01", "deny")

	if resp.Status != http.StatusOK {
		t.Fatalf("Status = %d, ожидается 200", resp.Status)
	}
	if got := users.userpass["testacc01"]; !slices.Equal(got, []string{"d_svcacct_testacc02"}) {
		t.Errorf("Policies = %v", got)
	}
}

func TestMembership_AddUser_Userpass(t *testing.T) {
	m, users := newTestMembership(t, "userpass")
	users.userpass["testacc01"] = []string{"default"}

	m.AddUser(context.Background(), adminCaller(), "testacc02", "testacc01", "sudo")

	if !slices.Equal(users.calls, []string{"ReadUserpassUser:testacc01", "WriteUserpassPolicies:testacc01"}) {
		t.Errorf("вызовы = %v", users.calls)
	}
	if got := users.userpass["testacc01"]; !slices.Equal(got, []string{"default", "o_svcacct_testacc02"}) {
		t.Errorf("Policies = %v", got)
	}
}

func TestMembership_AddUser_InvalidAccess(t *testing.T) {
	m, users := newTestMembership(t, "ldap")

	resp := m.AddUser(context.Background(), adminCaller(), "testacc02", "testacc01", "owner")

	assertResponse(t, resp, http.StatusBadRequest, `{"errors":["`+msgInvalidAccess+`"]}`)
	if len(users.calls) != 0 {
		t.Errorf("backend не должен вызываться: %v", users.calls)
	}
}

func TestMembership_RemoveUser(t *testing.T) {
	m, users := newTestMembership(t, "ldap")
	users.ldap["testacc01"] = &vault.AuthUser{
		Policies: []string{"default", "r_svcacct_testacc02", "o_svcacct_testacc02", "r_svcacct_testacc020"},
	}

	resp := m.RemoveUser(context.Background(), adminCaller(), "testacc02", "testacc01")

	if resp.Status != http.StatusOK {
		t.Fatalf("Status = %d, ожидается 200", resp.Status)
	}
	got := users.ldap["testacc01"].Policies
	if !slices.Equal(got, []string{"default", "r_svcacct_testacc020"}) {
		t.Errorf("Policies = %v, удаляются только точные совпадения", got)
	}
}

func TestMembership_Errors(t *testing.T) {
	tests := []struct {
		name           string
		readErr        error
		writeErr       error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "ошибка чтения пользователя",
			readErr:        vaultErr(http.StatusForbidden, "permission denied"),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"errors":["permission denied"]}`,
		},
		{
			name:           "ошибка записи политик",
			writeErr:       vaultErr(http.StatusBadRequest, "invalid policies"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["invalid policies"]}`,
		},
		{
			name:           "Vault недоступен",
			readErr:        errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"errors":["` + msgUpstreamNoResponse + `"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, users := newTestMembership(t, "ldap")
			users.readErr = tt.readErr
			users.writeErr = tt.writeErr

			resp := m.AddUser(context.Background(), adminCaller(), "testacc02", "testacc01", "read")
			assertResponse(t, resp, tt.expectedStatus, tt.expectedBody)

			resp = m.RemoveUser(context.Background(), adminCaller(), "testacc02", "testacc01")
			assertResponse(t, resp, tt.expectedStatus, tt.expectedBody)
		})
	}
}
