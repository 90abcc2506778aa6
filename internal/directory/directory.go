// Пакет directory - поиск учётных записей в Active Directory через LDAP.
// Соединение открывается на каждый поиск и закрывается после него.
package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

// Атрибуты, запрашиваемые у AD.
var accountAttributes = []string{
	"cn", "displayName", "givenName", "mail", "userPrincipalName",
	"description", "accountExpires", "userAccountControl", "lockoutTime",
}

// Флаг ACCOUNTDISABLE в userAccountControl.
const uacAccountDisable = 0x2

// Options - параметры подключения к AD.
type Options struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	StartTLS     bool
	PageSize     int
	Timeout      time.Duration
	// MaxPwdAge - срок действия пароля в домене (дни), подставляется в каждую запись
	MaxPwdAge int
	TLSConfig *tls.Config
}

// Searcher - поиск учётных записей в AD.
type Searcher struct {
	opts   Options
	logger *slog.Logger
}

// New создаёт Searcher.
func New(opts Options, logger *slog.Logger) *Searcher {
	if opts.PageSize <= 0 {
		opts.PageSize = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Searcher{
		opts:   opts,
		logger: logger.With(slog.String("component", "ldap_searcher")),
	}
}

// Search выполняет постраничный поиск по фильтру от BaseDN.
// Записи возвращаются в порядке выдачи AD.
func (s *Searcher) Search(ctx context.Context, filter string) ([]model.DirectoryAccount, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		s.opts.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		0, int(s.opts.Timeout.Seconds()), false,
		filter,
		accountAttributes,
		nil,
	)

	res, err := conn.SearchWithPaging(req, uint32(s.opts.PageSize)) //nolint:gosec // PageSize валидируется конфигурацией
	if err != nil {
		return nil, fmt.Errorf("поиск в AD: %w", err)
	}

	accounts := make([]model.DirectoryAccount, 0, len(res.Entries))
	for _, entry := range res.Entries {
		accounts = append(accounts, mapEntry(entry, s.opts.MaxPwdAge))
	}

	s.logger.Debug("Поиск в AD выполнен",
		slog.String("filter", filter),
		slog.Int("count", len(accounts)),
	)
	return accounts, nil
}

// connect подключается к AD и выполняет bind.
func (s *Searcher) connect(ctx context.Context) (*ldap.Conn, error) {
	dialer := &net.Dialer{Timeout: s.opts.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	dialOpts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}
	if s.opts.TLSConfig != nil {
		dialOpts = append(dialOpts, ldap.DialWithTLSConfig(s.opts.TLSConfig))
	}

	conn, err := ldap.DialURL(s.opts.URL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("подключение к AD %s: %w", s.opts.URL, err)
	}
	conn.SetTimeout(s.opts.Timeout)

	if s.opts.StartTLS {
		tlsCfg := s.opts.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("StartTLS к AD: %w", err)
		}
	}

	if s.opts.BindDN != "" {
		if err := conn.Bind(s.opts.BindDN, s.opts.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bind к AD: %w", err)
		}
	}
	return conn, nil
}

// CheckReady проверяет доступность AD подключением и bind.
func (s *Searcher) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, err := s.connect(ctx)
	if err != nil {
		return "fail", err.Error()
	}
	conn.Close()
	return "ok", "bind выполнен"
}

// mapEntry преобразует запись LDAP в DirectoryAccount.
func mapEntry(entry *ldap.Entry, maxPwdAge int) model.DirectoryAccount {
	return model.DirectoryAccount{
		DisplayName:    entry.GetAttributeValue("displayName"),
		GivenName:      entry.GetAttributeValue("givenName"),
		UserEmail:      entry.GetAttributeValue("mail"),
		UserID:         entry.GetAttributeValue("cn"),
		UserName:       entry.GetAttributeValue("userPrincipalName"),
		Purpose:        entry.GetAttributeValue("description"),
		AccountExpires: formatFileTime(entry.GetAttributeValue("accountExpires")),
		MaxPwdAge:      maxPwdAge,
		AccountStatus:  accountStatus(entry.GetAttributeValue("userAccountControl")),
		LockStatus:     lockStatus(entry.GetAttributeValue("lockoutTime")),
	}
}

// Смещение эпохи Windows FILETIME (1601-01-01) относительно Unix в 100-нс интервалах.
const fileTimeUnixOffset = 116444736000000000

// formatFileTime форматирует accountExpires. 0 и MaxInt64 - «никогда».
func formatFileTime(raw string) string {
	if raw == "" {
		return ""
	}
	ft, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	if ft == 0 || ft == 1<<63-1 {
		return "Never"
	}
	unix100ns := ft - fileTimeUnixOffset
	t := time.Unix(unix100ns/1e7, (unix100ns%1e7)*100).UTC()
	return t.Format("2006-01-02 15:04:05")
}

func accountStatus(raw string) string {
	uac, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ""
	}
	if uac&uacAccountDisable != 0 {
		return "disabled"
	}
	return "active"
}

func lockStatus(raw string) string {
	lockout, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || lockout == 0 {
		return "unlocked"
	}
	return "locked"
}
