package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelshelf/internal/library"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the library folder",
	Long:  "Discards the cached catalog and classifies the library folder again.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runScan(cmd.Context(), a, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(ctx context.Context, a *app, out io.Writer) error {
	cat, err := a.cache.Invalidate(ctx)
	if err != nil {
		return fmt.Errorf("scan %s: %w", a.rootName, err)
	}
	if err := cat.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.rootName, err)
	}
	if jsonOutput {
		return printJSON(out, summarize(cat))
	}
	printSummary(out, a.rootName, cat)
	return nil
}

type catalogSummary struct {
	Type     library.LayoutType `json:"type"`
	Movies   int                `json:"movies"`
	Series   int                `json:"series"`
	Episodes int                `json:"episodes"`
	Failures []string           `json:"failures,omitempty"`
}

func summarize(cat *library.Catalog) catalogSummary {
	s := catalogSummary{
		Type:     cat.Type,
		Movies:   len(cat.Movies),
		Series:   len(cat.Series),
		Failures: cat.Failures,
	}
	for _, series := range cat.Series {
		s.Episodes += series.TotalEpisodes
	}
	return s
}

func printSummary(out io.Writer, root string, cat *library.Catalog) {
	s := summarize(cat)
	fmt.Fprintf(out, "Library:  %s (%s)\n", root, s.Type)
	fmt.Fprintf(out, "Movies:   %d\n", s.Movies)
	fmt.Fprintf(out, "Series:   %d (%d episodes)\n", s.Series, s.Episodes)
	if len(s.Failures) > 0 {
		fmt.Fprintf(out, "\nUnreadable (%d):\n", len(s.Failures))
		for _, f := range s.Failures {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
}
