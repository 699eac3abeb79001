package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokarak/gopppd/internal/controlapi"
)

// errSessionIDRequired is returned when a session subcommand is missing
// its positional session ID argument.
var errSessionIDRequired = errors.New("session id is required")

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage PPP sessions",
	}

	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionShowCmd())
	cmd.AddCommand(sessionTerminateCmd())

	return cmd
}

// --- session list ---

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all PPP sessions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			views, err := httpClient.listSessions()
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out, err := formatSessions(views, outputFormat)
			if err != nil {
				return fmt.Errorf("format sessions: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// --- session show ---

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details of a PPP session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if args[0] == "" {
				return errSessionIDRequired
			}

			view, err := httpClient.getSession(args[0])
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}

			out, err := formatSession(view, outputFormat)
			if err != nil {
				return fmt.Errorf("format session: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// --- session terminate ---

func sessionTerminateCmd() *cobra.Command {
	var (
		reason uint8
		hard   bool
	)

	cmd := &cobra.Command{
		Use:   "terminate <id>",
		Short: "Terminate a PPP session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if args[0] == "" {
				return errSessionIDRequired
			}

			req := controlapi.TerminateRequest{Reason: reason, Hard: hard}
			if err := httpClient.terminateSession(args[0], req); err != nil {
				return fmt.Errorf("terminate session: %w", err)
			}

			fmt.Printf("Session %s terminated.\n", args[0])
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint8Var(&reason, "reason", 1, "termination reason code (RFC 2866 Acct-Terminate-Cause)")
	flags.BoolVar(&hard, "hard", false, "tear down immediately instead of draining gracefully")

	return cmd
}
