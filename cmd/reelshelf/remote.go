package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	v1 "github.com/vmunix/reelshelf/internal/api/v1"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := NewClient(serverURL).Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, status)
		}
		printStatus(out, status)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check library access, catalog and profile storage",
	Long:  "Asks a running server to check the library folder grant, the last catalog build and the current profile's progress storage.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := NewClient(serverURL).Verify(cmd.Context())
		if err != nil {
			return fmt.Errorf("verify failed: %w", err)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, result)
		}
		printVerifyResult(out, result)
		return nil
	},
}

var (
	eventsLimit  int
	eventsEntity string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := NewClient(serverURL).Events(cmd.Context(), eventsLimit, eventsEntity)
		if err != nil {
			return fmt.Errorf("events failed: %w", err)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, resp)
		}
		printEvents(out, resp)
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "Maximum events")
	eventsCmd.Flags().StringVar(&eventsEntity, "media", "", "Only events of this media identity")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(eventsCmd)
}

func printStatus(out io.Writer, s *StatusResponse) {
	profile := s.Profile
	if profile == "" {
		profile = "(none)"
	}
	fmt.Fprintf(out, "Server:     %s\n", s.Status)
	fmt.Fprintf(out, "Catalog:    %s\n", s.Cache)
	fmt.Fprintf(out, "Profile:    %s\n", profile)
	if s.Permission != "" {
		fmt.Fprintf(out, "Library:    %s\n", s.Permission)
	}
}

func printVerifyResult(out io.Writer, r *v1.VerifyResponse) {
	if r.Permission != "" {
		fmt.Fprintf(out, "Library access: %s\n\n", r.Permission)
	}

	for _, p := range r.Problems {
		fmt.Fprintf(out, "  x %s: %s\n", p.Subject, p.Issue)
		for _, c := range p.Checks {
			fmt.Fprintf(out, "      %s\n", c)
		}
		if p.Likely != "" {
			fmt.Fprintf(out, "    Likely cause: %s\n", p.Likely)
		}
		for _, f := range p.Fixes {
			fmt.Fprintf(out, "    Fix: %s\n", f)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d/%d checks passed\n", r.Passed, r.Checked)
}

func printEvents(out io.Writer, r *ListEventsResponse) {
	if len(r.Items) == 0 {
		fmt.Fprintln(out, "No events")
		return
	}
	for _, e := range r.Items {
		detail := e.Summary
		if detail == "" {
			detail = e.EntityID
		}
		fmt.Fprintf(out, "  %-20s %-20s %s\n", e.OccurredAt, e.EventType, detail)
	}
	if r.Total > len(r.Items) {
		fmt.Fprintf(out, "\n%d of %d shown\n", len(r.Items), r.Total)
	}
}
