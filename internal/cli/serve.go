package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focusforge/focusforge/internal/daemon"
)

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.Host, "host", "", "Host to listen on (overrides api.host)")
	f.IntVar(&serveOpts.Port, "port", 0, "Port to listen on (overrides api.port)")
	f.StringVar(&serveOpts.DataDir, "data-dir", "", "Directory holding focusforge.db (overrides storage.dir)")
	f.StringVar(&serveOpts.Insight, "insight", "", "Insight provider: rules or openai (overrides insight.provider)")
	f.BoolVar(&serveOpts.NoMetrics, "no-metrics", false, "Do not expose /metrics")
	rootCmd.AddCommand(serveCmd)
}

var serveOpts daemon.Overrides

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FocusForge API server",
	Long: `Start the JSON API server (default 127.0.0.1:8787) with the expiry janitor
and health checks. Flags override the matching keys in config.toml.`,
	Example: `  focusforge serve --port 9000
  focusforge serve --data-dir ./data --insight openai`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig(serveOpts)
	if err != nil {
		return err
	}
	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	return d.Serve(cmd.Context())
}

// serveConfig loads config.toml and layers the serve flags over it.
func serveConfig(o daemon.Overrides) (daemon.Config, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Apply(o); err != nil {
		return cfg, fmt.Errorf("serve flags: %w", err)
	}
	return cfg, nil
}
