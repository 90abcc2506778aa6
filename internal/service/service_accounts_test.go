package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

func TestAddUser(t *testing.T) {
	tests := []struct {
		name           string
		caller         model.Caller
		access         string
		writeErr       error
		expectedStatus int
		expectedBody   string
		backendCalled  bool
	}{
		{
			name:           "успешное добавление",
			caller:         adminCaller(),
			access:         "read",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"messages":["Successfully added user to the Service Account"]}`,
			backendCalled:  true,
		},
		{
			name:           "не администратор",
			caller:         userCaller(),
			access:         "read",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["Not authorized to perform"]}`,
		},
		{
			name:           "недопустимый уровень доступа",
			caller:         adminCaller(),
			access:         "sudo",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["Invalid value specified for access. Valid values are read, write, deny"]}`,
		},
		{
			name:           "ошибка backend",
			caller:         adminCaller(),
			access:         "write",
			writeErr:       vaultErr(http.StatusBadRequest, "invalid"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["Failed to add user to the Service Account"]}`,
			backendCalled:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWithMethod(t, "userpass")
			env.users.writeErr = tt.writeErr

			resp := env.svc.AddUser(context.Background(), tt.caller, &model.ServiceAccountUser{
				AccountName: "testacc02",
				Username:    "testacc01",
				Access:      tt.access,
			})

			assertResponse(t, resp, tt.expectedStatus, tt.expectedBody)
			if called := len(env.users.calls) > 0; called != tt.backendCalled {
				t.Errorf("backend вызван = %v, ожидается %v (%v)", called, tt.backendCalled, env.users.calls)
			}
		})
	}
}

func TestRemoveUser(t *testing.T) {
	tests := []struct {
		name           string
		caller         model.Caller
		readErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "успешное удаление",
			caller:         adminCaller(),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"messages":["Successfully removed user from the Service Account"]}`,
		},
		{
			name:           "не администратор",
			caller:         userCaller(),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["Not authorized to perform"]}`,
		},
		{
			name:           "ошибка backend",
			caller:         adminCaller(),
			readErr:        errors.New("connection refused"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["Failed to remove the user from the Service Account"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.users.ldap["testacc01"] = &vault.AuthUser{Policies: []string{"default", "o_svcacct_testacc02"}}
			env.users.readErr = tt.readErr

			resp := env.svc.RemoveUser(context.Background(), tt.caller, &model.ServiceAccountUser{
				AccountName: "testacc02",
				Username:    "testacc01",
				Access:      "read",
			})

			assertResponse(t, resp, tt.expectedStatus, tt.expectedBody)
			if tt.expectedStatus == http.StatusOK {
				if got := env.users.ldap["testacc01"].Policies; !slices.Equal(got, []string{"default"}) {
					t.Errorf("Policies = %v", got)
				}
			}
		})
	}
}

func TestRemoveUser_NotAuthorizedSkipsBackend(t *testing.T) {
	env := newTestEnv(t)

	env.svc.RemoveUser(context.Background(), userCaller(), &model.ServiceAccountUser{
		AccountName: "testacc02",
		Username:    "testacc01",
	})

	if len(env.users.calls) != 0 {
		t.Errorf("backend не должен вызываться: %v", env.users.calls)
	}
}

func TestResetPassword(t *testing.T) {
	t.Run("успешный сброс", func(t *testing.T) {
		env := newTestEnv(t)
		env.roles.creds = map[string]any{
			"current_password": "?@09AZkLfqgzr0AS6r2DwTo4E5r",
			"last_password":    nil,
			"username":         "testacc02",
		}

		resp := env.svc.ResetPassword(context.Background(), adminCaller(), "testacc02")

		assertResponse(t, resp, http.StatusOK,
			`{"current_password":"?@09AZkLfqgzr0AS6r2DwTo4E5r","last_password":null,"username":"testacc02"}`)
		if !slices.Equal(env.roles.calls, []string{"RotateRole:testacc02", "ReadCreds:testacc02"}) {
			t.Errorf("вызовы = %v", env.roles.calls)
		}
	})

	t.Run("403 передаётся без изменений", func(t *testing.T) {
		env := newTestEnv(t)
		env.roles.rotateErr = vaultErr(http.StatusForbidden, "1 error occurred:\n\t* permission denied\n\n")

		resp := env.svc.ResetPassword(context.Background(), userCaller(), "testacc02")

		assertResponse(t, resp, http.StatusForbidden, `{"errors":["1 error occurred:\n\t* permission denied\n\n"]}`)
		if slices.Contains(env.roles.calls, "ReadCreds:testacc02") {
			t.Error("ReadCreds не должен вызываться после ошибки ротации")
		}
	})

	t.Run("Vault недоступен", func(t *testing.T) {
		env := newTestEnv(t)
		env.roles.credsErr = errors.New("EOF")

		resp := env.svc.ResetPassword(context.Background(), adminCaller(), "testacc02")

		assertResponse(t, resp, http.StatusInternalServerError, `{"errors":["`+msgUpstreamNoResponse+`"]}`)
	})
}

func TestGetDetails(t *testing.T) {
	t.Run("роль найдена", func(t *testing.T) {
		env := newTestEnv(t)
		env.roles.role = map[string]any{
			"service_account_name": "testacc02@aaa.bbb.ccc.com",
			"last_vault_rotation":  "2018-05-24T17:14:38.677370855Z",
			"password_last_set":    "2018-05-24T17:14:38.6038495Z",
			"ttl":                  json.Number("100"),
		}

		resp := env.svc.GetDetails(context.Background(), adminCaller(), "testacc02")

		assertResponse(t, resp, http.StatusOK,
			`{"name":"testacc02@aaa.bbb.ccc.com","lastVaultRotation":"2018-05-24T17:14:38.677370855Z","passwordLastSet":"2018-05-24T17:14:38.6038495Z","ttl":100}`)
	})

	notOnboarded := `{"errors":["Either Service Account is not onboarded or you don't have enough permission to read"]}`

	t.Run("роль не найдена", func(t *testing.T) {
		env := newTestEnv(t)
		env.roles.readErr = notFound("ad/roles/testacc02")

		resp := env.svc.GetDetails(context.Background(), adminCaller(), "testacc02")

		assertResponse(t, resp, http.StatusNotFound, notOnboarded)
	})

	t.Run("пустой ответ", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.svc.GetDetails(context.Background(), adminCaller(), "testacc02")

		assertResponse(t, resp, http.StatusNotFound, notOnboarded)
	})

	t.Run("прочие ошибки передаются", func(t *testing.T) {
		env := newTestEnv(t)
		env.roles.readErr = vaultErr(http.StatusForbidden, "permission denied")

		resp := env.svc.GetDetails(context.Background(), adminCaller(), "testacc02")

		assertResponse(t, resp, http.StatusForbidden, `{"errors":["permission denied"]}`)
	})
}

func TestListOnboarded(t *testing.T) {
	tests := []struct {
		name           string
		caller         model.Caller
		keys           []string
		listErr        error
		expectedStatus int
		expectedBody   string
		queried        bool
	}{
		{
			name:           "не администратор",
			caller:         userCaller(),
			keys:           []string{"testacc02"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":["TO BE IMPLEMENTED for non admin user"]}`,
		},
		{
			name:           "нет ролей",
			caller:         adminCaller(),
			listErr:        notFound("ad/roles"),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"keys":[]}`,
			queried:        true,
		},
		{
			name:           "список ролей",
			caller:         adminCaller(),
			keys:           []string{"testacc02", "testacc03", "testacc04"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"keys":["testacc02","testacc03","testacc04"]}`,
			queried:        true,
		},
		{
			name:           "ошибка Vault",
			caller:         adminCaller(),
			listErr:        vaultErr(http.StatusForbidden, "permission denied"),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"errors":["permission denied"]}`,
			queried:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.roles.keys = tt.keys
			env.roles.listErr = tt.listErr

			resp := env.svc.ListOnboarded(context.Background(), tt.caller)

			assertResponse(t, resp, tt.expectedStatus, tt.expectedBody)
			if queried := len(env.roles.calls) > 0; queried != tt.queried {
				t.Errorf("Vault опрошен = %v, ожидается %v", queried, tt.queried)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Onboard(context.Background(), adminCaller(), onboardRequest())
	env.svc.Offboard(context.Background(), adminCaller(),
		&model.OnboardedServiceAccount{Name: "svcacc02", Owner: "user01"})

	runs, err := env.svc.History(context.Background(), adminCaller(), "svcacc02")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("записей: %d, ожидается 2", len(runs))
	}
	if runs[0].Operation != model.OperationOnboard || runs[1].Operation != model.OperationOffboard {
		t.Errorf("операции: %s, %s", runs[0].Operation, runs[1].Operation)
	}

	if _, err := env.svc.History(context.Background(), userCaller(), "svcacc02"); !errors.Is(err, ErrForbidden) {
		t.Errorf("ошибка = %v, ожидается ErrForbidden", err)
	}
}

func TestHistory_JournalDisabled(t *testing.T) {
	catalog, _ := LoadPolicyCatalog()
	roles := &fakeRoles{}
	backend, _ := NewMembershipBackend("ldap", newFakeUsers())
	logger := testLogger()
	svc := NewServiceAccountService(
		NewRegistrar(roles, logger),
		NewPolicyManager(&fakePolicies{}, catalog, "ad", logger),
		NewMembershipManager(backend, catalog, logger),
		roles, nil, nil, testDomainSuffix, logger,
	)

	if _, err := svc.History(context.Background(), adminCaller(), "svcacc02"); !errors.Is(err, ErrJournalDisabled) {
		t.Errorf("ошибка = %v, ожидается ErrJournalDisabled", err)
	}
}

func TestInt64Field(t *testing.T) {
	data := map[string]any{
		"number": json.Number("3600"),
		"float":  float64(60),
		"string": "120",
		"bad":    true,
	}
	tests := []struct {
		key  string
		want int64
	}{
		{"number", 3600},
		{"float", 60},
		{"string", 120},
		{"bad", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := int64Field(data, tt.key); got != tt.want {
			t.Errorf("int64Field(%q) = %d, ожидается %d", tt.key, got, tt.want)
		}
	}
}
