package api

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ListAccounts returns one page of linked accounts.
func (c *Client) ListAccounts(ctx context.Context, q AccountQuery) (*AccountPage, error) {
	query := pageQuery(q.Page, q.PageSize, map[string]string{
		"name_filter": q.NameFilter,
		"domain":      q.Domain,
	})
	data, err := c.get(ctx, "/api/accounts", query)
	if err != nil {
		return nil, err
	}
	page, err := decode[AccountPage](data)
	if err != nil {
		return nil, err
	}
	if page.Accounts == nil {
		page.Accounts = []Account{}
	}
	return page, nil
}

// GetAccount loads one account by domain and name.
func (c *Client) GetAccount(ctx context.Context, domain, name string) (*Account, error) {
	domain = strings.TrimSpace(domain)
	name = strings.TrimSpace(name)
	if domain == "" || name == "" {
		return nil, errors.New("account domain and name are required")
	}
	data, err := c.get(ctx, "/api/accounts/"+url.PathEscape(domain)+"/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	return decode[Account](data)
}
