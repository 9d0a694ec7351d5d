package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/nox-mcp/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigDefaultsCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after applying defaults, the --config file,
NOX_MCP_* environment variables and flags. The output can be used as a
config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return writeConfig(cmd, cfg)
		},
	}

	// Server flags are accepted so their effect can be previewed.
	cmd.Flags().String("transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().String("http-addr", ":8080", "HTTP server address for streamable-http")
	cmd.Flags().Bool("disable-streaming", false, "Disable SSE streaming for streamable-http")
	cmd.Flags().Bool("metrics-enabled", true, "Serve Prometheus metrics for streamable-http")
	cmd.Flags().String("metrics-addr", ":9090", "Metrics server address")
	return cmd
}

func newConfigDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeConfig(cmd, config.Default())
		},
	}
}

func writeConfig(cmd *cobra.Command, cfg config.Config) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
