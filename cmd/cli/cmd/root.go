package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath       string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cmsctl",
	Short: "cmsctl - operate the Civil Master Solution backend",
	Long: `cmsctl is the operator tool for the Civil Master Solution CMS backend.

It lets you:
- Create and manage back-office admin accounts
- Validate the chatbot knowledge base file
- Inspect the chatbot's estimated monthly spend`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("DATABASE_PATH", "./data/cms-backend.db"), "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
