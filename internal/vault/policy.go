package vault

import "context"

// PutPolicy создаёт или заменяет ACL-политику.
func (c *Client) PutPolicy(ctx context.Context, token, name, rules string) error {
	client, err := c.withToken(token)
	if err != nil {
		return err
	}
	return client.Sys().PutPolicyWithContext(ctx, name, rules)
}

// DeletePolicy удаляет ACL-политику.
func (c *Client) DeletePolicy(ctx context.Context, token, name string) error {
	client, err := c.withToken(token)
	if err != nil {
		return err
	}
	return client.Sys().DeletePolicyWithContext(ctx, name)
}
