package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find movies and series by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runSearch(cmd.Context(), a, cmd.OutOrStdout(), strings.Join(args, " "), searchLimit)
		})
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, a *app, out io.Writer, query string, limit int) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	matches := cat.Find(query)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if jsonOutput {
		return printJSON(out, matches)
	}
	if len(matches) == 0 {
		fmt.Fprintf(out, "No matches for %q\n", query)
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "  %-7s %-40s %-6s %s\n", m.Type, m.Title, m.Level, m.Identity)
	}
	return nil
}
