// cmd/counselctl/root.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/logger"
)

var (
	configPath string
	logLevel   string
	log        logger.Logger = logger.NewNoOpLogger()
)

var rootCmd = &cobra.Command{
	Use:   "counselctl",
	Short: "Operator tooling for the counselling lead pipeline",
	Long: `Scores leads, ranks programs and renders reports offline, and runs
maintenance tasks (catalog import, staff accounts, SLA sweeps) against the
pipeline's stores.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.NewStructured(logLevel, "console")
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: configs/config.yaml lookup)")
	pf.StringVar(&logLevel, "log-level", "warn", "log level")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
