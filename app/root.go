// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qadesk-admin",
	Short: "QADesk-Admin is the backend for the QADesk QA-process management tool",
	Long: `QADesk-Admin is the backend for the QADesk QA-process management tool.
It serves the JSON REST API and WebSocket presence channel used by the web
client to manage versions, documentation, test plans, changelog publishing,
users, module permissions and the audit-log trail.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
