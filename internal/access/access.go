// Package access turns the current user's permissions into console rights
// and builds permission pillboxes wired to the API.
package access

import (
	"context"
	"sort"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/pillbox"
)

// Rights is the permission set of the signed-in user.
type Rights struct {
	perms map[string]struct{}
	known bool
}

// NewRights wraps a permission list as returned by GetUserPermissions.
func NewRights(perms []string) Rights {
	r := Rights{perms: make(map[string]struct{}, len(perms)), known: true}
	for _, p := range perms {
		r.perms[p] = struct{}{}
	}
	return r
}

// Unknown is the rights of a user whose id is not configured.
func Unknown() Rights {
	return Rights{}
}

// Known reports whether permissions were loaded.
func (r Rights) Known() bool {
	return r.known
}

// Can reports whether perm is held. admin implies everything.
func (r Rights) Can(perm string) bool {
	if _, ok := r.perms[api.AdminPermission]; ok {
		return true
	}
	_, ok := r.perms[perm]
	return ok
}

// CanEditPermissions gates the pillbox edit affordances.
func (r Rights) CanEditPermissions() bool {
	return r.Can(api.PermModifyUsers)
}

// CanManageUsers gates user creation and deletion.
func (r Rights) CanManageUsers() bool {
	return r.Can(api.PermManageUsers)
}

// Load fetches the rights for userID. A blank id yields Unknown.
func Load(ctx context.Context, client *api.Client, userID string) (Rights, error) {
	if userID == "" {
		return Unknown(), nil
	}
	perms, err := client.GetUserPermissions(ctx, userID)
	if err != nil {
		return Unknown(), err
	}
	return NewRights(perms), nil
}

// BoxInput is everything needed to build a user's permission pillbox.
type BoxInput struct {
	UserID    string
	Held      []string
	Catalogue []api.Permission
	Editable  bool
	Notifier  pillbox.Notifier
	OnClick   func(string)
	OnUpdate  func(pillbox.View)
}

// PermissionBox builds a pillbox over a user's permissions. admin is always
// fixed and can only appear when already held. Held permissions missing from
// the catalogue are still shown, and without edit rights every permission
// is fixed.
func PermissionBox(client *api.Client, in BoxInput) (*pillbox.Box, error) {
	descriptions := api.PermissionDescriptions(in.Catalogue)
	holdsAdmin := false
	for _, p := range in.Held {
		if p == api.AdminPermission {
			holdsAdmin = true
		}
		if _, ok := descriptions[p]; !ok {
			descriptions[p] = ""
		}
	}
	if !holdsAdmin {
		delete(descriptions, api.AdminPermission)
	}

	opts := []pillbox.Option{
		pillbox.WithEdits(in.Editable),
		pillbox.WithValidValues(pillbox.Described(descriptions)),
		pillbox.OnAdd(func(ctx context.Context, value string) (bool, error) {
			return collaborate(client.AddUserPermissions(ctx, in.UserID, value))
		}),
		pillbox.OnRemove(func(ctx context.Context, value string) (bool, error) {
			return collaborate(client.RemoveUserPermissions(ctx, in.UserID, value))
		}),
	}
	if in.Notifier != nil {
		opts = append(opts, pillbox.WithNotifier(in.Notifier))
	}
	if in.OnClick != nil {
		opts = append(opts, pillbox.OnClick(in.OnClick))
	}
	if in.OnUpdate != nil {
		opts = append(opts, pillbox.OnUpdate(in.OnUpdate))
	}
	box := pillbox.New(in.UserID, opts...)

	var editable, fixed []string
	seen := make(map[string]struct{}, len(in.Held))
	for _, p := range in.Held {
		if _, dup := seen[p]; dup || p == "" {
			continue
		}
		seen[p] = struct{}{}
		if in.Editable && p != api.AdminPermission {
			editable = append(editable, p)
			continue
		}
		fixed = append(fixed, p)
	}
	if len(fixed) > 0 {
		if err := box.Populate(false, fixed...); err != nil {
			return nil, err
		}
	}
	if len(editable) > 0 {
		if err := box.Populate(true, editable...); err != nil {
			return nil, err
		}
	}
	return box, nil
}

// Addable lists catalogue keys the user could still be given. admin is
// never offered.
func Addable(box *pillbox.Box) []string {
	view := box.Render()
	var out []string
	for _, v := range box.ValidValues().Values() {
		if v == api.AdminPermission || view.Has(v) {
			continue
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// collaborate maps an API result to the pillbox collaborator contract:
// non-2xx responses are a rejection, anything else is a transport failure.
func collaborate(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if api.StatusCode(err) != 0 {
		return false, nil
	}
	return false, err
}
