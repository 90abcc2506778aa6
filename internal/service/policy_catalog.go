package service

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/goartstore/svcacct-module/internal/domain/model"
)

//go:embed policy_catalog.yaml
var policyCatalogYAML []byte

// PolicyCatalog - уровни доступа к service account и правила их политик.
type PolicyCatalog struct {
	Levels []PolicyLevel `yaml:"levels"`
}

// PolicyLevel - один уровень доступа.
type PolicyLevel struct {
	Access string       `yaml:"access"`
	Prefix string       `yaml:"prefix"`
	Paths  []PolicyPath `yaml:"paths"`
}

// PolicyPath - правило ACL для одного пути.
type PolicyPath struct {
	Path         string   `yaml:"path"`
	Capabilities []string `yaml:"capabilities"`
}

// LoadPolicyCatalog разбирает встроенный каталог политик.
func LoadPolicyCatalog() (*PolicyCatalog, error) {
	return ParsePolicyCatalog(policyCatalogYAML)
}

// ParsePolicyCatalog разбирает каталог и проверяет, что описаны все уровни доступа.
func ParsePolicyCatalog(data []byte) (*PolicyCatalog, error) {
	var c PolicyCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("разбор каталога политик: %w", err)
	}

	seen := make(map[string]bool, len(c.Levels))
	for _, l := range c.Levels {
		if l.Prefix == "" || len(l.Paths) == 0 {
			return nil, fmt.Errorf("каталог политик: уровень %q без prefix или paths", l.Access)
		}
		if seen[l.Access] {
			return nil, fmt.Errorf("каталог политик: уровень %q описан дважды", l.Access)
		}
		seen[l.Access] = true
	}
	for _, access := range []string{model.AccessRead, model.AccessWrite, model.AccessDeny, model.AccessSudo} {
		if !seen[access] {
			return nil, fmt.Errorf("каталог политик: нет уровня %q", access)
		}
	}
	return &c, nil
}

func (c *PolicyCatalog) level(access string) (PolicyLevel, bool) {
	for _, l := range c.Levels {
		if l.Access == access {
			return l, true
		}
	}
	return PolicyLevel{}, false
}

// PolicyName возвращает имя политики уровня access для service account.
func (c *PolicyCatalog) PolicyName(access, account string) (string, bool) {
	l, ok := c.level(access)
	if !ok {
		return "", false
	}
	return l.Prefix + "_svcacct_" + account, true
}

// PolicyNames возвращает имена политик всех уровней в порядке каталога.
func (c *PolicyCatalog) PolicyNames(account string) []string {
	names := make([]string, 0, len(c.Levels))
	for _, l := range c.Levels {
		names = append(names, l.Prefix+"_svcacct_"+account)
	}
	return names
}

// Render формирует HCL-текст политики.
func (l PolicyLevel) Render(mount, account string) string {
	r := strings.NewReplacer("{mount}", mount, "{name}", account)

	var b strings.Builder
	for i, p := range l.Paths {
		if i > 0 {
			b.WriteString("\n")
		}
		caps := make([]string, len(p.Capabilities))
		for j, cp := range p.Capabilities {
			caps[j] = fmt.Sprintf("%q", cp)
		}
		fmt.Fprintf(&b, "path %q {\n  capabilities = [%s]\n}\n", r.Replace(p.Path), strings.Join(caps, ", "))
	}
	return b.String()
}
