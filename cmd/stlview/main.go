// Command stlview measures, renders and watches STL meshes.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/soypat/stlview"
	"github.com/soypat/stlview/viewer"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "stlview",
	Short: "Measure and render STL meshes",
	Long: `stlview loads binary or ASCII STL files, reports the volume they enclose
and renders them into PNG snapshots with configurable color, light and camera.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
			return fmt.Errorf("invalid --log-level %q", logLevel)
		}
		stlview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
}

// loadConfig returns the configuration from --config, or the defaults.
func loadConfig() (viewer.Config, error) {
	if configPath == "" {
		return viewer.DefaultConfig(), nil
	}
	return viewer.LoadConfig(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
