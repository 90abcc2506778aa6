package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// AccountFilter строит LDAP-фильтр поиска учётных записей по префиксу
// userPrincipalName. Для каждого имени из exclude добавляется (!(CN=<имя>))
// в порядке следования.
//
// (&(userPrincipalName=svc*)(objectClass=user)(!(CN=null))(!(CN=svc01)))
func AccountFilter(prefix string, exclude []string) string {
	var b strings.Builder
	b.WriteString("(&(userPrincipalName=")
	b.WriteString(ldap.EscapeFilter(prefix))
	b.WriteString("*)(objectClass=user)(!(CN=null))")
	for _, name := range exclude {
		b.WriteString("(!(CN=")
		b.WriteString(ldap.EscapeFilter(name))
		b.WriteString("))")
	}
	b.WriteString(")")
	return b.String()
}
