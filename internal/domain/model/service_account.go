package model

// ServiceAccount - запрос на онбординг AD service account.
type ServiceAccount struct {
	// Name - имя учётной записи в AD (CN)
	Name string `json:"name"`
	// Owner - имя пользователя, получающего sudo-доступ к учётной записи
	Owner string `json:"owner"`
	// TTL - интервал ротации пароля в секундах
	TTL int64 `json:"ttl"`
	// MaxTTL - верхняя граница интервала ротации
	MaxTTL int64 `json:"max_ttl"`
	// AutoRotate - пароль ротируется автоматически
	AutoRotate bool `json:"autoRotate"`
}

// OnboardedServiceAccount - запрос на оффбординг.
type OnboardedServiceAccount struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// Уровни доступа пользователя к service account.
const (
	AccessRead  = "read"
	AccessWrite = "write"
	AccessDeny  = "deny"
	// AccessSudo - доступ владельца, выдаётся только при онбординге.
	AccessSudo = "sudo"
)

// ServiceAccountUser - запрос на добавление/удаление пользователя.
type ServiceAccountUser struct {
	// AccountName - имя service account
	AccountName string `json:"svcAccName"`
	// Username - пользователь auth backend (ldap или userpass)
	Username string `json:"username"`
	// Access - read, write или deny
	Access string `json:"access"`
}

// IsValidAccess проверяет уровень доступа, допустимый в запросах пользователей.
func IsValidAccess(access string) bool {
	switch access {
	case AccessRead, AccessWrite, AccessDeny:
		return true
	}
	return false
}

// ServiceAccountTTL - тело запроса на создание роли в AD secrets engine.
type ServiceAccountTTL struct {
	RoleName string `json:"role_name"`
	// ServiceAccountName - всегда name + "@" + домен, см. NewServiceAccountTTL
	ServiceAccountName string `json:"service_account_name"`
	TTL                int64  `json:"ttl"`
}

// NewServiceAccountTTL формирует payload роли из запроса онбординга.
func NewServiceAccountTTL(sa *ServiceAccount, domainSuffix string) ServiceAccountTTL {
	return ServiceAccountTTL{
		RoleName:           sa.Name,
		ServiceAccountName: PrincipalName(sa.Name, domainSuffix),
		TTL:                sa.TTL,
	}
}

// PrincipalName возвращает userPrincipalName учётной записи.
func PrincipalName(name, domainSuffix string) string {
	return name + "@" + domainSuffix
}

// OnboardedServiceAccountDetails - сведения о роли в формате API.
type OnboardedServiceAccountDetails struct {
	Name              string `json:"name"`
	LastVaultRotation string `json:"lastVaultRotation"`
	PasswordLastSet   string `json:"passwordLastSet"`
	TTL               int64  `json:"ttl"`
}
