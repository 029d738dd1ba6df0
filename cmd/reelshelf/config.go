package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelshelf/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without starting the server.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configArgPath(args)
		if err != nil {
			return err
		}
		return runConfigTest(cmd.OutOrStdout(), path)
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) > 0 {
			path = args[0]
		}
		return runConfigInit(cmd.OutOrStdout(), path, configInitForce)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configInitCmd)
}

func configArgPath(args []string) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case configPath != "":
		return configPath, nil
	default:
		return config.Discover()
	}
}

func runConfigTest(out io.Writer, path string) error {
	fmt.Fprintf(out, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(out, configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(out, cfg)
	fmt.Fprintln(out, "\nConfiguration valid!")
	return nil
}

func runConfigInit(out io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	fmt.Fprintln(out, "Set library.root (or REELSHELF_LIBRARY) and run 'reelshelf config test'.")
	return nil
}

func printConfigErrors(out io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Fprintln(out, "Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Fprintf(out, "  - %s\n", m)
		}
		fmt.Fprintln(out)
	}

	if len(e.Errors) > 0 {
		fmt.Fprintln(out, "Validation errors:")
		for _, err := range e.Errors {
			fmt.Fprintf(out, "  - %s\n", err)
		}
		fmt.Fprintln(out)
	}
}

func printConfigSummary(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Configuration Summary:")
	fmt.Fprintf(out, "  Server:     %s:%d (log: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel)
	fmt.Fprintf(out, "  Database:   %s\n", cfg.Database.Path)
	fmt.Fprintf(out, "  Library:    %s (depth %d)\n", cfg.Library.Root, cfg.Library.MaxDepth)
	fmt.Fprintf(out, "  Cache:      ttl %s, refresh %s\n", cfg.Cache.TTL, cfg.Cache.RefreshInterval)
	fmt.Fprintf(out, "  Progress:   throttle %s\n", cfg.Progress.Throttle)
	fmt.Fprintf(out, "  Permission: poll %s\n", cfg.Permission.PollInterval)
	fmt.Fprintf(out, "  Events:     keep %s\n", cfg.Events.Retention)
	if cfg.Log.File != "" {
		fmt.Fprintf(out, "  Log file:   %s (%d MB x %d)\n", cfg.Log.File, cfg.Log.MaxSize, cfg.Log.MaxBackups)
	}
	if cfg.Profile.Default != "" {
		fmt.Fprintf(out, "  Profile:    %s\n", cfg.Profile.Default)
	}
}
