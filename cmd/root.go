package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/peekknuf/sage/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Data quality grading CLI",
	Long: `A data quality grading tool for CSV, Excel, JSON
and database tables. Scores completeness, accuracy,
consistency and timeliness, and recommends fixes`,
	Version: "1.0.0",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.sage.yaml)")
}

// loadConfig reads the configured file, falling back to $HOME/.sage.yaml
// when it exists, then to built-in defaults.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".sage.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	return config.Load(path)
}
