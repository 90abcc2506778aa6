package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"testing"

	"github.com/hashicorp/vault/api"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/rbac"
	"github.com/bigkaa/goartstore/svcacct-module/internal/vault"
)

const (
	testToken        = "s.test-token"
	testDomainSuffix = "aaa.bbb.ccc.com"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// vaultErr имитирует ответ Vault с ошибкой.
func vaultErr(status int, msgs ...string) error {
	return &api.ResponseError{
		HTTPMethod: "POST",
		URL:        "http://vault.local:8200/v1/test",
		StatusCode: status,
		Errors:     msgs,
	}
}

func notFound(path string) error {
	return fmt.Errorf("%w: %s", vault.ErrNotFound, path)
}

func adminCaller() model.Caller {
	return model.Caller{Username: "admin01", IsAdmin: true, Token: testToken}
}

func userCaller() model.Caller {
	return model.Caller{Username: "user01", IsAdmin: false, Token: testToken}
}

// bodyJSON сериализует тело ответа для сравнения.
func bodyJSON(t *testing.T, resp *model.Response) string {
	t.Helper()
	if resp == nil {
		t.Fatal("ответ nil")
	}
	b, err := json.Marshal(resp.Body)
	if err != nil {
		t.Fatalf("сериализация тела: %v", err)
	}
	return string(b)
}

func assertResponse(t *testing.T, resp *model.Response, status int, body string) {
	t.Helper()
	if resp == nil {
		t.Fatal("ответ nil")
	}
	if resp.Status != status {
		t.Errorf("Status = %d, ожидается %d", resp.Status, status)
	}
	if got := bodyJSON(t, resp); got != body {
		t.Errorf("Body = %s, ожидается %s", got, body)
	}
}

// --- fakeRoles: AD secrets engine ---

type fakeRoles struct {
	calls   []string
	created []model.ServiceAccountTTL
	tokens  []string

	createErr error
	deleteErr error
	readErr   error
	listErr   error
	rotateErr error
	credsErr  error

	role  map[string]any
	keys  []string
	creds map[string]any
}

func (f *fakeRoles) record(call, token string) {
	f.calls = append(f.calls, call)
	f.tokens = append(f.tokens, token)
}

func (f *fakeRoles) CreateRole(_ context.Context, token string, ttl model.ServiceAccountTTL) error {
	f.record("CreateRole:"+ttl.RoleName, token)
	f.created = append(f.created, ttl)
	return f.createErr
}

func (f *fakeRoles) DeleteRole(_ context.Context, token, roleName string) error {
	f.record("DeleteRole:"+roleName, token)
	return f.deleteErr
}

func (f *fakeRoles) ReadRole(_ context.Context, token, roleName string) (map[string]any, error) {
	f.record("ReadRole:"+roleName, token)
	return f.role, f.readErr
}

func (f *fakeRoles) ListRoles(_ context.Context, token string) ([]string, error) {
	f.record("ListRoles", token)
	return f.keys, f.listErr
}

func (f *fakeRoles) RotateRole(_ context.Context, token, roleName string) error {
	f.record("RotateRole:"+roleName, token)
	return f.rotateErr
}

func (f *fakeRoles) ReadCreds(_ context.Context, token, roleName string) (map[string]any, error) {
	f.record("ReadCreds:"+roleName, token)
	return f.creds, f.credsErr
}

// --- fakePolicies: sys/policy ---

type fakePolicies struct {
	calls   []string
	rules   map[string]string
	putErr  error
	delErrs map[string]error
}

func (f *fakePolicies) PutPolicy(_ context.Context, _, name, rules string) error {
	f.calls = append(f.calls, "PutPolicy:"+name)
	if f.putErr != nil {
		return f.putErr
	}
	if f.rules == nil {
		f.rules = make(map[string]string)
	}
	f.rules[name] = rules
	return nil
}

func (f *fakePolicies) DeletePolicy(_ context.Context, _, name string) error {
	f.calls = append(f.calls, "DeletePolicy:"+name)
	return f.delErrs[name]
}

// --- fakeUsers: auth/ldap и auth/userpass ---

type fakeUsers struct {
	calls    []string
	ldap     map[string]*vault.AuthUser
	userpass map[string][]string
	readErr  error
	writeErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		ldap:     make(map[string]*vault.AuthUser),
		userpass: make(map[string][]string),
	}
}

func (f *fakeUsers) ReadLDAPUser(_ context.Context, _, username string) (*vault.AuthUser, error) {
	f.calls = append(f.calls, "ReadLDAPUser:"+username)
	if f.readErr != nil {
		return nil, f.readErr
	}
	u, ok := f.ldap[username]
	if !ok {
		return nil, notFound("auth/ldap/users/" + username)
	}
	return &vault.AuthUser{Policies: slices.Clone(u.Policies), Groups: slices.Clone(u.Groups)}, nil
}

func (f *fakeUsers) WriteLDAPUser(_ context.Context, _, username string, user *vault.AuthUser) error {
	f.calls = append(f.calls, "WriteLDAPUser:"+username)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.ldap[username] = &vault.AuthUser{Policies: slices.Clone(user.Policies), Groups: slices.Clone(user.Groups)}
	return nil
}

func (f *fakeUsers) ReadUserpassUser(_ context.Context, _, username string) (*vault.AuthUser, error) {
	f.calls = append(f.calls, "ReadUserpassUser:"+username)
	if f.readErr != nil {
		return nil, f.readErr
	}
	p, ok := f.userpass[username]
	if !ok {
		return nil, notFound("auth/userpass/users/" + username)
	}
	return &vault.AuthUser{Policies: slices.Clone(p)}, nil
}

func (f *fakeUsers) WriteUserpassPolicies(_ context.Context, _, username string, policies []string) error {
	f.calls = append(f.calls, "WriteUserpassPolicies:"+username)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.userpass[username] = slices.Clone(policies)
	return nil
}

// --- fakeJournal ---

type fakeJournal struct {
	runs      []*model.SagaRun
	recordErr error
}

func (f *fakeJournal) Record(_ context.Context, run *model.SagaRun) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeJournal) ListByAccount(_ context.Context, account string, limit int) ([]*model.SagaRun, error) {
	var out []*model.SagaRun
	for _, r := range f.runs {
		if r.AccountName == account && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- тестовое окружение ---

type testEnv struct {
	roles    *fakeRoles
	policies *fakePolicies
	users    *fakeUsers
	journal  *fakeJournal
	catalog  *PolicyCatalog
	svc      *ServiceAccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithMethod(t, "ldap")
}

func newTestEnvWithMethod(t *testing.T, authMethod string) *testEnv {
	t.Helper()

	catalog, err := LoadPolicyCatalog()
	if err != nil {
		t.Fatalf("LoadPolicyCatalog: %v", err)
	}

	env := &testEnv{
		roles:    &fakeRoles{},
		policies: &fakePolicies{},
		users:    newFakeUsers(),
		journal:  &fakeJournal{},
		catalog:  catalog,
	}

	backend, err := NewMembershipBackend(authMethod, env.users)
	if err != nil {
		t.Fatalf("NewMembershipBackend: %v", err)
	}

	logger := testLogger()
	env.svc = NewServiceAccountService(
		NewRegistrar(env.roles, logger),
		NewPolicyManager(env.policies, catalog, "ad", logger),
		NewMembershipManager(backend, catalog, logger),
		env.roles,
		rbac.AdminOnly{},
		env.journal,
		testDomainSuffix,
		logger,
	)
	return env
}
