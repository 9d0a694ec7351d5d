package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/nox-mcp/internal/nox"
)

// exitCodeError carries a nox exit code out of a command so Execute can
// exit with it.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("nox exited with code %d", e.code)
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or run nox sessions without starting a server",
		Long: `List or run nox sessions through the same client the MCP tools use,
with the same validation, timeouts and error messages.`,
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsRunCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nox sessions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client := nox.NewClient(append(cfg.ClientOptions(), nox.WithLogger(logger))...)

			d, err := timeoutFlag(timeout)
			if err != nil {
				return err
			}
			sessions, err := client.ListSessions(cmd.Context(), d)
			if err != nil {
				return errors.New(nox.UserMessage(err))
			}
			return writeJSON(cmd.OutOrStdout(), sessions)
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 0, "Timeout in seconds (default: configured list timeout)")
	return cmd
}

func newSessionsRunCmd() *cobra.Command {
	var (
		req     nox.RunRequest
		timeout int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run nox sessions",
		Long: `Run nox sessions and print their output.

The command exits with nox's exit code. With --json the exit code, stdout
and stderr are printed as one JSON object instead.`,
		Example: `  nox-mcp sessions run -s tests -p 3.12
  nox-mcp sessions run -t ci --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client := nox.NewClient(append(cfg.ClientOptions(), nox.WithLogger(logger))...)

			if req.Timeout, err = timeoutFlag(timeout); err != nil {
				return err
			}
			result, err := client.RunSessions(cmd.Context(), req)
			if err != nil {
				return errors.New(nox.UserMessage(err))
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				_, _ = io.WriteString(cmd.OutOrStdout(), result.Stdout)
				_, _ = io.WriteString(cmd.ErrOrStderr(), result.Stderr)
			}

			if result.ExitCode != 0 {
				return &exitCodeError{code: result.ExitCode}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&req.Sessions, "session", "s", nil, "Session name to run (repeatable)")
	cmd.Flags().StringSliceVarP(&req.Tags, "tag", "t", nil, "Session tag to run (repeatable)")
	cmd.Flags().StringVarP(&req.Keywords, "keywords", "k", "", "Keyword expression selecting sessions")
	cmd.Flags().StringVarP(&req.Python, "python", "p", "", "Python version to run sessions for")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Timeout in seconds (default: configured run timeout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// timeoutFlag converts a --timeout value in seconds. Zero selects the
// configured default.
func timeoutFlag(n int) (time.Duration, error) {
	if n < 0 {
		return 0, fmt.Errorf("--timeout must not be negative, got %d", n)
	}
	return time.Duration(n) * time.Second, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
