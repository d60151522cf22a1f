package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/export"
)

// exportConcurrency bounds the permission lookups of a users export.
const exportConcurrency = 4

// UsersCmd returns the `mirrorctl users` command group.
func UsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersShowCmd())
	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersDeleteCmd())
	cmd.AddCommand(usersExportCmd())
	return cmd
}

func usersListCmd() *cobra.Command {
	var page int
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			res, err := s.client.ListUsers(cmd.Context(), api.UserQuery{
				Page:           page,
				PageSize:       s.cfg.PageSize(),
				UsernameFilter: filter,
			})
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(res.Users) == 0 {
				fmt.Fprintln(out, "no users found")
				return nil
			}
			now := time.Now()
			for _, u := range res.Users {
				fmt.Fprintf(out, "  %s  %-26s  %s\n", u.ID, u.Username, u.PresenceText(now))
			}
			if res.NextPage {
				fmt.Fprintf(out, "more on page %d\n", res.Page+1)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "username filter")
	return cmd
}

func usersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user and their permissions",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			ctx := cmd.Context()
			var user *api.User
			var perms []string
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				user, err = s.client.GetUser(gctx, args[0])
				return err
			})
			g.Go(func() error {
				var err error
				perms, err = s.client.GetUserPermissions(gctx, args[0])
				return err
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("show user: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:           %s\n", user.ID)
			fmt.Fprintf(out, "username:     %s\n", user.Username)
			fmt.Fprintf(out, "status:       %s\n", user.PresenceText(time.Now()))
			fmt.Fprintf(out, "created:      %s\n", stamp(user.Created))
			fmt.Fprintf(out, "last updated: %s\n", stamp(user.LastUpdated))
			fmt.Fprintf(out, "permissions:  %s\n", orNone(perms))
			return nil
		}),
	}
}

func usersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user; the password is read from stdin twice",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())
			input := api.NewUserInput{
				Username:        strings.TrimSpace(args[0]),
				Password:        readSecret(reader, out, "password: "),
				ConfirmPassword: readSecret(reader, out, "confirm password: "),
			}
			id, err := s.client.CreateUser(cmd.Context(), input)
			if err != nil {
				if api.StatusCode(err) == http.StatusConflict {
					return fmt.Errorf("create user: username %q is already taken", input.Username)
				}
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(out, "user created: %s (%s)\n", input.Username, id)
			return nil
		}),
	}
}

func usersDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			if err := s.client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "user deleted")
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func usersExportCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export every user and their permissions to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			rows, err := collectUserRows(cmd.Context(), s.client, s.cfg.PageSize(), filter)
			if err != nil {
				return fmt.Errorf("export users: %w", err)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			if err := export.UsersXLSX(f, rows, time.Now()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d users to %s\n", len(rows), args[0])
			return nil
		}),
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "username filter")
	return cmd
}

// collectUserRows walks every page, then fetches permissions with bounded
// concurrency.
func collectUserRows(ctx context.Context, client *api.Client, pageSize int, filter string) ([]export.UserRow, error) {
	var users []api.User
	for page := 1; ; page++ {
		res, err := client.ListUsers(ctx, api.UserQuery{Page: page, PageSize: pageSize, UsernameFilter: filter})
		if err != nil {
			return nil, err
		}
		users = append(users, res.Users...)
		if !res.NextPage || len(res.Users) == 0 {
			break
		}
	}

	rows := make([]export.UserRow, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, u := range users {
		g.Go(func() error {
			perms, err := client.GetUserPermissions(gctx, u.ID)
			if err != nil {
				return fmt.Errorf("permissions of %s: %w", u.Username, err)
			}
			rows[i] = export.UserRow{User: u, Permissions: perms}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func readSecret(reader *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func stamp(ts *api.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
