package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyClear  bool
	historyPrefix string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the watch history of the current profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if historyClear || historyPrefix != "" {
				return runHistoryClear(cmd.Context(), a, cmd.OutOrStdout(), historyPrefix)
			}
			return runHistory(cmd.Context(), a, cmd.OutOrStdout(), historyLimit)
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Remove all history")
	historyCmd.Flags().StringVar(&historyPrefix, "prefix", "", "Remove history under an identity prefix, such as a series")
	rootCmd.AddCommand(historyCmd)
}

type historyEntry struct {
	Identity  string  `json:"media_identity"`
	Title     string  `json:"title,omitempty"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"`
	Completed bool    `json:"completed"`
	Timestamp int64   `json:"timestamp"`
	Available bool    `json:"available"`
}

func runHistory(ctx context.Context, a *app, out io.Writer, limit int) error {
	store, err := a.currentStore(ctx)
	if err != nil {
		return err
	}
	records := store.History(limit)

	// Titles are best effort; history stays readable while the library is not.
	cat, _, catErr := a.cache.Get(ctx)
	if catErr != nil {
		a.logger.Debug("history without catalog", "error", catErr)
	}

	entries := make([]historyEntry, len(records))
	for i, p := range records {
		entries[i] = historyEntry{
			Identity:  p.MediaIdentity,
			Position:  p.Position,
			Duration:  p.Duration,
			Completed: p.Completed,
			Timestamp: p.Timestamp,
		}
		if cat != nil {
			if item, err := cat.Lookup(p.MediaIdentity); err == nil {
				entries[i].Title = item.Title()
				entries[i].Available = true
			}
		}
	}

	if jsonOutput {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No history for %s\n", store.Profile())
		return nil
	}
	for _, e := range entries {
		title := e.Title
		if !e.Available {
			title = e.Identity + " (missing)"
		}
		state := formatClock(e.Position)
		if e.Completed {
			state = "watched"
		}
		fmt.Fprintf(out, "  %-16s %-50s %s\n", time.UnixMilli(e.Timestamp).Format("2006-01-02 15:04"), title, state)
	}
	return nil
}

func runHistoryClear(ctx context.Context, a *app, out io.Writer, prefix string) error {
	store, err := a.currentStore(ctx)
	if err != nil {
		return err
	}
	var removed int
	if prefix != "" {
		removed, err = store.ClearPrefix(ctx, prefix)
	} else {
		removed = len(store.History(0))
		err = store.Clear(ctx)
	}
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if jsonOutput {
		return printJSON(out, map[string]int{"removed": removed})
	}
	fmt.Fprintf(out, "Removed %d entries from %s\n", removed, store.Profile())
	return nil
}
