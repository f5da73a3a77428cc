package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/internal/database"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	envFile   string
	dataPath  string
	modelPath string
)

var rootCmd = &cobra.Command{
	Use:   "powerpal",
	Short: "Track prepaid electricity usage and forecast the next day",
	Long: `PowerPal keeps a log of daily prepaid meter readings, summarizes recent usage,
forecasts tomorrow's consumption and reports the remaining balance by WhatsApp,
MQTT or Home Assistant.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with credentials")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "usage log file (default is data/usage_log.csv)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "forecast model file (default is data/model.json)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the dotenv file and configuration, then applies flag overrides
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}

	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if modelPath != "" {
		cfg.ModelPath = modelPath
	}
	return cfg, nil
}

// saveConfig saves the configuration file
func saveConfig(cfg *config.Config) error {
	return config.Save(getConfigPath(), cfg)
}

// openDB opens the sqlite database used by the sqlite storage backend
func openDB(cfg *config.Config) (*database.DB, error) {
	path := cfg.GetDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}
