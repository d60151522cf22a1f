package api

import (
	"context"
	"sort"
)

type permissionsBody struct {
	Permissions []string `json:"permissions"`
}

// ListPermissions returns every grantable permission.
func (c *Client) ListPermissions(ctx context.Context) ([]Permission, error) {
	data, err := c.get(ctx, "/api/manage/permissions", nil)
	if err != nil {
		return nil, err
	}
	out, err := decode[struct {
		Permissions []Permission `json:"permissions"`
	}](data)
	if err != nil {
		return nil, err
	}
	perms := out.Permissions
	if perms == nil {
		perms = []Permission{}
	}
	sort.SliceStable(perms, func(i, j int) bool { return perms[i].Key < perms[j].Key })
	return perms, nil
}

// PermissionDescriptions maps permission keys to their descriptions.
func PermissionDescriptions(perms []Permission) map[string]string {
	out := make(map[string]string, len(perms))
	for _, p := range perms {
		out[p.Key] = p.Description
	}
	return out
}

// GetUserPermissions returns the keys granted to a user.
func (c *Client) GetUserPermissions(ctx context.Context, id string) ([]string, error) {
	path, err := userPath(id, "/permissions")
	if err != nil {
		return nil, err
	}
	data, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	out, err := decode[permissionsBody](data)
	if err != nil {
		return nil, err
	}
	if out.Permissions == nil {
		return []string{}, nil
	}
	return out.Permissions, nil
}

// AddUserPermissions grants perms to a user.
func (c *Client) AddUserPermissions(ctx context.Context, id string, perms ...string) error {
	path, err := userPath(id, "/permissions")
	if err != nil {
		return err
	}
	_, err = c.put(ctx, path, permissionsBody{Permissions: perms})
	return err
}

// RemoveUserPermissions revokes perms from a user.
func (c *Client) RemoveUserPermissions(ctx context.Context, id string, perms ...string) error {
	path, err := userPath(id, "/permissions")
	if err != nil {
		return err
	}
	_, err = c.del(ctx, path, permissionsBody{Permissions: perms})
	return err
}
