package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gravitrone/mirrorctl/internal/api"
)

// AccountsCmd returns the `mirrorctl accounts` command group.
func AccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Browse linked media accounts",
	}
	cmd.AddCommand(accountsListCmd())
	return cmd
}

func accountsListCmd() *cobra.Command {
	var page int
	var domain, name string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			res, err := s.client.ListAccounts(cmd.Context(), api.AccountQuery{
				Page:       page,
				PageSize:   s.cfg.PageSize(),
				NameFilter: name,
				Domain:     domain,
			})
			if err != nil {
				return fmt.Errorf("list accounts: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(res.Accounts) == 0 {
				fmt.Fprintln(out, "no accounts found")
				return nil
			}
			for _, a := range res.Accounts {
				fmt.Fprintf(out, "  %-18s %s\n", a.Domain, a.Name)
			}
			if res.NextPage {
				fmt.Fprintf(out, "more on page %d\n", res.Page+1)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "only accounts on this domain")
	cmd.Flags().StringVarP(&name, "name", "n", "", "account name filter")
	return cmd
}
