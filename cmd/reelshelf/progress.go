package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/library"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Read and write watch progress of the current profile",
}

var progressRecordCmd = &cobra.Command{
	Use:   "record <identity> <position> <duration>",
	Short: "Record a playback position in seconds",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid position: %s", args[1])
		}
		duration, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", args[2])
		}
		return withApp(cmd.Context(), func(a *app) error {
			return runProgressRecord(cmd.Context(), a, cmd.OutOrStdout(), args[0], position, duration, time.Now())
		})
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show <identity>",
	Short: "Show the stored position of a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runProgressShow(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <identity>",
	Short: "Mark a title as watched",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runProgressComplete(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressRecordCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressCompleteCmd)
}

func runProgressRecord(ctx context.Context, a *app, out io.Writer, identity string, position, duration float64, now time.Time) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	if _, err := cat.Lookup(identity); err != nil {
		return fmt.Errorf("%s: %w", identity, err)
	}
	if position <= 0 || duration <= 0 {
		return fmt.Errorf("position and duration must be positive")
	}

	store, err := a.currentStore(ctx)
	if err != nil {
		return err
	}
	store.RecordTick(ctx, identity, position, duration, now)
	store.Flush(ctx, identity)

	p := store.Get(identity)
	if p.Completed {
		publishCompleted(ctx, a, store.Profile(), p)
	}
	return printProgress(out, p)
}

func runProgressShow(ctx context.Context, a *app, out io.Writer, identity string) error {
	store, err := a.currentStore(ctx)
	if err != nil {
		return err
	}
	p := store.Get(identity)
	if p == nil {
		return fmt.Errorf("no progress for %s", identity)
	}
	return printProgress(out, p)
}

func runProgressComplete(ctx context.Context, a *app, out io.Writer, identity string) error {
	store, err := a.currentStore(ctx)
	if err != nil {
		return err
	}
	if !store.MarkCompleted(ctx, identity) {
		return fmt.Errorf("no progress for %s", identity)
	}
	p := store.Get(identity)
	publishCompleted(ctx, a, store.Profile(), p)
	return printProgress(out, p)
}

func publishCompleted(ctx context.Context, a *app, profileName string, p *library.WatchProgress) {
	e := &events.PlaybackCompleted{
		BaseEvent: events.NewBaseEvent(events.EventPlaybackCompleted, events.EntityMedia, p.MediaIdentity),
		Profile:   profileName,
		MediaType: string(p.MediaType),
		Position:  p.Position,
		Duration:  p.Duration,
	}
	if err := a.bus.Publish(ctx, e); err != nil {
		a.logger.Warn("publish failed", "type", e.EventType(), "error", err)
	}
}

func printProgress(out io.Writer, p *library.WatchProgress) error {
	if jsonOutput {
		return printJSON(out, p)
	}
	fmt.Fprintf(out, "%s\n", p.MediaIdentity)
	fmt.Fprintf(out, "  Position:  %s / %s\n", formatClock(p.Position), formatClock(p.Duration))
	fmt.Fprintf(out, "  Completed: %t\n", p.Completed)
	fmt.Fprintf(out, "  Updated:   %s\n", time.UnixMilli(p.Timestamp).Format(time.RFC3339))
	return nil
}
