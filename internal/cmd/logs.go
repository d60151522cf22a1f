package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/gravitrone/mirrorctl/internal/ui/components"
)

// LogsCmd returns the `mirrorctl logs` command group.
func LogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Read server log files",
	}
	cmd.AddCommand(logsTreeCmd())
	cmd.AddCommand(logsCatCmd())
	return cmd
}

func logsTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the log index",
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			root, err := s.client.LogTree(cmd.Context())
			if err != nil {
				return fmt.Errorf("log tree: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(root.Children) == 0 {
				fmt.Fprintln(out, "no log files")
				return nil
			}
			printLogNodes(out, root.Children, 0)
			return nil
		}),
	}
}

func printLogNodes(out io.Writer, nodes []api.LogNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Dir {
			fmt.Fprintf(out, "%s%s/\n", indent, n.Name)
			printLogNodes(out, n.Children, depth+1)
			continue
		}
		fmt.Fprintf(out, "%s%s  %s  (%s)\n", indent, n.Name, components.HumanSize(n.Size), n.Path)
	}
}

func logsCatCmd() *cobra.Command {
	var levels, comps []string
	var grep string
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print the records of a log file",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			filter := newRecordFilter(levels, comps, grep)
			out := cmd.OutOrStdout()
			err := s.client.StreamLog(cmd.Context(), args[0], func(rec api.LogRecord) error {
				if filter.allows(rec) {
					printRecord(out, rec)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return nil
		}),
	}
	cmd.Flags().StringSliceVarP(&levels, "level", "l", nil, "only these levels")
	cmd.Flags().StringSliceVarP(&comps, "component", "c", nil, "only these components")
	cmd.Flags().StringVarP(&grep, "grep", "g", "", "message substring")
	return cmd
}

type recordFilter struct {
	levels map[string]bool
	comps  map[string]bool
	query  string
}

func newRecordFilter(levels, comps []string, query string) recordFilter {
	f := recordFilter{query: strings.ToLower(strings.TrimSpace(query))}
	if len(levels) > 0 {
		f.levels = map[string]bool{}
		for _, l := range levels {
			f.levels[strings.ToUpper(strings.TrimSpace(l))] = true
		}
	}
	if len(comps) > 0 {
		f.comps = map[string]bool{}
		for _, c := range comps {
			f.comps[strings.TrimSpace(c)] = true
		}
	}
	return f
}

func (f recordFilter) allows(rec api.LogRecord) bool {
	level := rec.Level
	if level == "" && rec.IsError() {
		level = "ERROR"
	}
	if f.levels != nil && !f.levels[level] {
		return false
	}
	if f.comps != nil && rec.Component != "" && !f.comps[rec.Component] {
		return false
	}
	if f.query != "" && !strings.Contains(strings.ToLower(rec.Message+" "+rec.Error), f.query) {
		return false
	}
	return true
}

func printRecord(out io.Writer, rec api.LogRecord) {
	if rec.Message == "" && rec.IsError() {
		fmt.Fprintf(out, "! %s\n", rec.Error)
		return
	}
	fmt.Fprintf(out, "%s %-8s %-16s %s\n", rec.Time, rec.Level, rec.Component, rec.Message)
	if rec.IsError() {
		fmt.Fprintf(out, "  error: %s\n", rec.Error)
	}
}
