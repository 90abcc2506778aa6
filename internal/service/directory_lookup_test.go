package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

type fakeSearcher struct {
	filters  []string
	accounts []model.DirectoryAccount
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, filter string) ([]model.DirectoryAccount, error) {
	f.filters = append(f.filters, filter)
	return f.accounts, f.err
}

type fakeLister struct {
	called bool
	names  []string
	resp   *model.Response
}

func (f *fakeLister) OnboardedNames(context.Context, model.Caller) ([]string, *model.Response) {
	f.called = true
	return f.names, f.resp
}

func directoryAccounts(ids ...string) []model.DirectoryAccount {
	out := make([]model.DirectoryAccount, len(ids))
	for i, id := range ids {
		out[i] = model.DirectoryAccount{UserID: id, UserName: id + "@aaa.bbb.ccc.com"}
	}
	return out
}

func userIDs(res *model.DirectoryAccounts) []string {
	ids := make([]string, len(res.Data.Values))
	for i, a := range res.Data.Values {
		ids[i] = a.UserID
	}
	return ids
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name          string
		exclude       bool
		lister        *fakeLister
		found         []string
		expectedIDs   []string
		expectedQuery string
	}{
		{
			name:          "без исключения",
			exclude:       false,
			lister:        &fakeLister{names: []string{"testacc02"}},
			found:         []string{"testacc01", "testacc02", "testacc03"},
			expectedIDs:   []string{"testacc01", "testacc02", "testacc03"},
			expectedQuery: "(&(userPrincipalName=test*)(objectClass=user)(!(CN=null)))",
		},
		{
			name:          "онбордированные исключаются",
			exclude:       true,
			lister:        &fakeLister{names: []string{"testacc02"}},
			found:         []string{"testacc01", "testacc02", "testacc03"},
			expectedIDs:   []string{"testacc01", "testacc03"},
			expectedQuery: "(&(userPrincipalName=test*)(objectClass=user)(!(CN=null))(!(CN=testacc02)))",
		},
		{
			name:          "список онбордированных пуст",
			exclude:       true,
			lister:        &fakeLister{names: []string{}},
			found:         []string{"testacc01"},
			expectedIDs:   []string{"testacc01"},
			expectedQuery: "(&(userPrincipalName=test*)(objectClass=user)(!(CN=null)))",
		},
		{
			name:          "список недоступен, поиск без исключения",
			exclude:       true,
			lister:        &fakeLister{resp: model.ErrorResponse(http.StatusBadRequest, msgNonAdminList)},
			found:         []string{"testacc01", "testacc02"},
			expectedIDs:   []string{"testacc01", "testacc02"},
			expectedQuery: "(&(userPrincipalName=test*)(objectClass=user)(!(CN=null)))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{accounts: directoryAccounts(tt.found...)}
			svc := NewDirectoryLookupService(searcher, tt.lister, testLogger())

			res, err := svc.Lookup(context.Background(), adminCaller(), "test", tt.exclude)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}

			if got := strings.Join(userIDs(res), ","); got != strings.Join(tt.expectedIDs, ",") {
				t.Errorf("userId = %s, ожидается %s", got, strings.Join(tt.expectedIDs, ","))
			}
			if len(searcher.filters) != 1 || searcher.filters[0] != tt.expectedQuery {
				t.Errorf("фильтр = %v, ожидается %s", searcher.filters, tt.expectedQuery)
			}
			if tt.lister.called != tt.exclude {
				t.Errorf("список онбордированных запрошен = %v, ожидается %v", tt.lister.called, tt.exclude)
			}
		})
	}
}

func TestLookup_EmptyResult(t *testing.T) {
	svc := NewDirectoryLookupService(&fakeSearcher{}, &fakeLister{}, testLogger())

	res, err := svc.Lookup(context.Background(), adminCaller(), "nomatch", false)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Data.Values == nil || len(res.Data.Values) != 0 {
		t.Errorf("Values = %#v, ожидается пустой массив", res.Data.Values)
	}
}

func TestLookup_SearchError(t *testing.T) {
	searchErr := errors.New("LDAP Result Code 200: connection refused")
	svc := NewDirectoryLookupService(&fakeSearcher{err: searchErr}, &fakeLister{}, testLogger())

	if _, err := svc.Lookup(context.Background(), adminCaller(), "test", false); !errors.Is(err, searchErr) {
		t.Errorf("ошибка = %v, ожидается обёрнутая ошибка поиска", err)
	}
}
