// Command dashboard runs the agency client dashboard API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"agency-dashboard/internal/common/config"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "Agency client dashboard",
	Long:          `Serves the multi-client marketing dashboard API: prospects, sequences, segments, activities and analytics.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: configs/config.yaml)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
