package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelshelf/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage viewer profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles, most recently used first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runProfileList(cmd.Context(), a, cmd.OutOrStdout())
		})
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile and switch to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			p, err := a.profiles.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printProfile(cmd.OutOrStdout(), "Created", p)
		})
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			p, err := a.profiles.Use(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printProfile(cmd.OutOrStdout(), "Using", p)
		})
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile and its watch history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runProfileDelete(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var profileStatsCmd = &cobra.Command{
	Use:   "stats [name]",
	Short: "Summarize the watch history of a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runProfileStats(cmd.Context(), a, cmd.OutOrStdout(), name)
		})
	},
}

var (
	settingsAutoResume bool
	settingsVolume     float64
	settingsSpeed      float64
)

var profileSettingsCmd = &cobra.Command{
	Use:   "settings <name>",
	Short: "Change playback settings of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var upd profile.SettingsUpdate
		if cmd.Flags().Changed("auto-resume") {
			upd.AutoResume = &settingsAutoResume
		}
		if cmd.Flags().Changed("volume") {
			upd.DefaultVolume = &settingsVolume
		}
		if cmd.Flags().Changed("speed") {
			upd.PlaybackSpeed = &settingsSpeed
		}
		return withApp(cmd.Context(), func(a *app) error {
			p, err := a.profiles.UpdateSettings(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			return printProfile(cmd.OutOrStdout(), "Updated", p)
		})
	},
}

func init() {
	profileSettingsCmd.Flags().BoolVar(&settingsAutoResume, "auto-resume", true, "Resume from the stored position")
	profileSettingsCmd.Flags().Float64Var(&settingsVolume, "volume", 0.8, "Default volume, 0 to 1")
	profileSettingsCmd.Flags().Float64Var(&settingsSpeed, "speed", 1.0, "Playback speed")

	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileStatsCmd)
	profileCmd.AddCommand(profileSettingsCmd)
}

func runProfileList(ctx context.Context, a *app, out io.Writer) error {
	profiles, err := a.profiles.List(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		if profiles == nil {
			profiles = []profile.Profile{}
		}
		return printJSON(out, profiles)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No profiles (run 'reelshelf profile create <name>')")
		return nil
	}

	current := ""
	if p, err := a.profiles.Current(ctx); err == nil {
		current = p.Name
	}
	for _, p := range profiles {
		marker := " "
		if p.Name == current {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-16s last used %s\n", marker, p.Name, p.LastUsed.Format("2006-01-02 15:04"))
	}
	return nil
}

func runProfileDelete(ctx context.Context, a *app, out io.Writer, name string) error {
	if err := a.profiles.Delete(ctx, name); err != nil {
		return err
	}
	if err := a.progress.Drop(ctx, name); err != nil {
		a.logger.Warn("failed to drop progress of deleted profile", "profile", name, "error", err)
	}
	fmt.Fprintf(out, "Deleted %s\n", name)
	return nil
}

func runProfileStats(ctx context.Context, a *app, out io.Writer, name string) error {
	if name == "" {
		p, err := a.profiles.Current(ctx)
		if err != nil {
			return err
		}
		name = p.Name
	}
	stats, err := a.profiles.Stats(ctx, name)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, stats)
	}
	fmt.Fprintf(out, "Profile:    %s\n", name)
	fmt.Fprintf(out, "Watched:    %d (%d movies, %d episodes)\n", stats.TotalWatched, stats.Movies, stats.Episodes)
	fmt.Fprintf(out, "Completed:  %d\n", stats.Completed)
	fmt.Fprintf(out, "Time:       %s\n", formatClock(stats.TotalTime))
	if stats.LastWatched != nil {
		fmt.Fprintf(out, "Last:       %s\n", stats.LastWatched.Format(time.RFC3339))
	}
	return nil
}

func printProfile(out io.Writer, verb string, p *profile.Profile) error {
	if jsonOutput {
		return printJSON(out, p)
	}
	fmt.Fprintf(out, "%s %s (auto-resume %t, volume %.2f, speed %.2fx)\n",
		verb, p.Name, p.Settings.AutoResume, p.Settings.DefaultVolume, p.Settings.PlaybackSpeed)
	return nil
}
