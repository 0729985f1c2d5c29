// Package main provides the keystone CLI, the operator surface for the
// data layer: synchronize schema files, review and decide gated
// migrations, and manage orphaned tables.
//
// Usage:
//
//	keystone sync                  # Sync YAML schemas against the database
//	keystone status                # Show registered tables and gate state
//	keystone migrate diff          # Show pending migrations
//	keystone migrate accept        # Apply pending migrations
//	keystone migrate reject        # Discard pending migrations
//	keystone orphans scan          # List tables no schema claims
//	keystone orphans cleanup       # Drop orphans past the grace period
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keystone-gg/keystone/internal/cli"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var (
	databaseURL string
	configFile  string
	schemasDir  string
	noColor     bool
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "keystone",
		Short:   "Schema synchronization and migration gate for game databases",
		Long:    `Keystone keeps declared table schemas in sync with a SQL database. Table creation is automatic; structural changes queue behind an operator decision made with this tool.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				cli.SetColors(false)
			}
			setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database-url", "d", "", "Database connection URL")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: keystone.yaml)")
	rootCmd.PersistentFlags().StringVarP(&schemasDir, "schemas", "s", "", "Directory of YAML table definitions")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		syncCmd(),
		statusCmd(),
		migrateCmd(),
		orphansCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error("error:")+" "+err.Error())
		os.Exit(1)
	}
}
