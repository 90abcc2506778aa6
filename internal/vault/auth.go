package vault

import (
	"context"
	"strings"
)

// AuthUser - пользователь метода аутентификации и его политики.
type AuthUser struct {
	Policies []string
	// Groups - группы LDAP-пользователя, сохраняются при перезаписи политик
	Groups []string
}

// --- auth/ldap ---

// ReadLDAPUser читает пользователя auth/ldap.
func (c *Client) ReadLDAPUser(ctx context.Context, token, username string) (*AuthUser, error) {
	data, err := c.read(ctx, token, "auth/ldap/users/"+username)
	if err != nil {
		return nil, err
	}
	return &AuthUser{
		Policies: toStrings(data["policies"]),
		Groups:   toStrings(data["groups"]),
	}, nil
}

// WriteLDAPUser перезаписывает политики и группы пользователя auth/ldap.
func (c *Client) WriteLDAPUser(ctx context.Context, token, username string, user *AuthUser) error {
	_, err := c.write(ctx, token, "auth/ldap/users/"+username, map[string]any{
		"policies": strings.Join(user.Policies, ","),
		"groups":   strings.Join(user.Groups, ","),
	})
	return err
}

// --- auth/userpass ---

// ReadUserpassUser читает пользователя auth/userpass.
// token_policies приоритетнее устаревшего поля policies.
func (c *Client) ReadUserpassUser(ctx context.Context, token, username string) (*AuthUser, error) {
	data, err := c.read(ctx, token, "auth/userpass/users/"+username)
	if err != nil {
		return nil, err
	}
	policies := toStrings(data["token_policies"])
	if len(policies) == 0 {
		policies = toStrings(data["policies"])
	}
	return &AuthUser{Policies: policies}, nil
}

// WriteUserpassPolicies перезаписывает политики пользователя auth/userpass.
func (c *Client) WriteUserpassPolicies(ctx context.Context, token, username string, policies []string) error {
	_, err := c.write(ctx, token, "auth/userpass/users/"+username+"/policies", map[string]any{
		"token_policies": strings.Join(policies, ","),
	})
	return err
}
