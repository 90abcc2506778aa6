// directory_lookup.go - поиск учётных записей AD по префиксу.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bigkaa/goartstore/svcacct-module/internal/directory"
	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// DirectorySearcher - поиск в AD. Реализуется *directory.Searcher.
type DirectorySearcher interface {
	Search(ctx context.Context, filter string) ([]model.DirectoryAccount, error)
}

// OnboardedLister - источник имён уже онбордированных service account.
type OnboardedLister interface {
	OnboardedNames(ctx context.Context, caller model.Caller) ([]string, *model.Response)
}

// DirectoryLookupService ищет учётные записи и при необходимости
// исключает уже онбордированные.
type DirectoryLookupService struct {
	searcher  DirectorySearcher
	onboarded OnboardedLister
	logger    *slog.Logger
}

// NewDirectoryLookupService создаёт DirectoryLookupService.
func NewDirectoryLookupService(searcher DirectorySearcher, onboarded OnboardedLister, logger *slog.Logger) *DirectoryLookupService {
	return &DirectoryLookupService{
		searcher:  searcher,
		onboarded: onboarded,
		logger:    logger.With(slog.String("component", "directory_lookup")),
	}
}

// Lookup ищет учётные записи, userPrincipalName которых начинается с prefix.
// Если список онбордированных получить не удалось, поиск выполняется без исключения.
func (d *DirectoryLookupService) Lookup(ctx context.Context, caller model.Caller, prefix string, excludeOnboarded bool) (*model.DirectoryAccounts, error) {
	var exclude []string
	if excludeOnboarded {
		names, resp := d.onboarded.OnboardedNames(ctx, caller)
		if resp != nil {
			d.logger.Warn("Список онбордированных SA недоступен, поиск без исключения",
				slog.String("caller", caller.Username),
				slog.Int("status", resp.Status),
			)
		} else {
			exclude = names
		}
	}

	accounts, err := d.searcher.Search(ctx, directory.AccountFilter(prefix, exclude))
	if err != nil {
		return nil, fmt.Errorf("поиск в каталоге: %w", err)
	}

	if len(exclude) > 0 {
		accounts = slices.DeleteFunc(accounts, func(a model.DirectoryAccount) bool {
			return slices.Contains(exclude, a.UserID)
		})
	}
	return model.NewDirectoryAccounts(accounts), nil
}
