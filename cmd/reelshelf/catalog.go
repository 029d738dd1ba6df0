package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelshelf/internal/library"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List movies and series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runCatalog(cmd.Context(), a, cmd.OutOrStdout())
		})
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series <identity>",
	Short: "List the seasons and episodes of a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runSeries(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(seriesCmd)
}

func runCatalog(ctx context.Context, a *app, out io.Writer) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, cat)
	}
	if err := cat.Err(); err != nil {
		return err
	}
	if cat.IsEmpty() {
		fmt.Fprintf(out, "No media found in %s\n", a.rootName)
		return nil
	}

	if len(cat.Movies) > 0 {
		fmt.Fprintf(out, "Movies (%d):\n", len(cat.Movies))
		for _, m := range cat.Movies {
			fmt.Fprintf(out, "  %-40s %-6s %s\n", m.Title, formatYear(m.Year), formatProgress(m.Progress))
		}
	}
	if len(cat.Series) > 0 {
		if len(cat.Movies) > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Series (%d):\n", len(cat.Series))
		for _, s := range cat.Series {
			fmt.Fprintf(out, "  %-40s %d/%d watched\n", s.Title, s.Progress.WatchedEpisodes, s.TotalEpisodes)
		}
	}
	if lw := cat.LastWatched; lw != nil {
		fmt.Fprintf(out, "\nContinue: %s\n", lw.MediaIdentity)
	}
	return nil
}

func runSeries(ctx context.Context, a *app, out io.Writer, identity string) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	s, err := cat.SeriesByIdentity(identity)
	if err != nil {
		return fmt.Errorf("series %s: %w", identity, err)
	}
	if jsonOutput {
		return printJSON(out, s)
	}

	fmt.Fprintf(out, "%s (%d%% watched)\n", s.Title, s.Progress.Percentage)
	for _, season := range s.Seasons {
		fmt.Fprintf(out, "\n%s:\n", season.Name)
		for _, e := range season.Episodes {
			fmt.Fprintf(out, "  %-8s %-40s %s\n", e.EpisodeLabel, e.Title, formatProgress(e.Progress))
		}
	}
	return nil
}

func formatYear(year *int) string {
	if year == nil {
		return ""
	}
	return fmt.Sprintf("(%d)", *year)
}

// formatProgress renders a compact watch state: empty, a percentage, or done.
func formatProgress(p *library.WatchProgress) string {
	switch {
	case p == nil:
		return ""
	case p.Completed:
		return "watched"
	case p.Duration <= 0:
		return formatClock(p.Position)
	default:
		return fmt.Sprintf("%d%% (%s)", int(p.Position/p.Duration*100), formatClock(p.Position))
	}
}

// formatClock renders seconds as h:mm:ss or m:ss.
func formatClock(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
