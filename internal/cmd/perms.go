package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gravitrone/mirrorctl/internal/access"
	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/pillbox"
)

// PermsCmd returns the `mirrorctl perms` command group.
func PermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "View and edit user permissions",
	}
	cmd.AddCommand(permsListCmd())
	cmd.AddCommand(permsEditCmd("add", "Grant permissions to a user", pillbox.OpAdd))
	cmd.AddCommand(permsEditCmd("remove", "Revoke permissions from a user", pillbox.OpRemove))
	return cmd
}

func permsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's permissions and what can still be granted",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			box, err := loadPermissionBox(cmd.Context(), s, args[0], nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range box.Render().Pills {
				marker := " "
				if !p.Editable {
					marker = "*"
				}
				if p.Description != "" {
					fmt.Fprintf(out, "%s %-20s %s\n", marker, p.Value, p.Description)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", marker, p.Value)
			}
			fmt.Fprintf(out, "grantable: %s\n", orNone(access.Addable(box)))
			return nil
		}),
	}
}

func permsEditCmd(use, short string, op pillbox.Op) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id> <permission>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			box, err := loadPermissionBox(ctx, s, args[0], printNotices(out))
			if err != nil {
				return err
			}
			failed := 0
			for _, perm := range args[1:] {
				var err error
				if op == pillbox.OpAdd {
					_, err = box.Add(ctx, perm)
				} else {
					_, err = box.Remove(ctx, perm)
				}
				if err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d changes failed", failed, len(args)-1)
			}
			return nil
		}),
	}
}

// loadPermissionBox builds the same pillbox the console shows. Without a
// configured user id the server is left to enforce edit rights.
func loadPermissionBox(ctx context.Context, s *session, userID string, notifier pillbox.Notifier) (*pillbox.Box, error) {
	var held []string
	var catalogue []api.Permission
	var rights access.Rights
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		held, err = s.client.GetUserPermissions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		catalogue, err = s.client.ListPermissions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rights, err = access.Load(gctx, s.client, s.cfg.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}

	return access.PermissionBox(s.client, access.BoxInput{
		UserID:    userID,
		Held:      held,
		Catalogue: catalogue,
		Editable:  !rights.Known() || rights.CanEditPermissions(),
		Notifier:  notifier,
	})
}

func printNotices(out io.Writer) pillbox.Notifier {
	return pillbox.NotifierFunc(func(n pillbox.Notice) {
		fmt.Fprintf(out, "%s: %s\n", n.Title, n.Text)
	})
}
