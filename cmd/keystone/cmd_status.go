package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/keystone-gg/keystone/internal/cli"
)

// statusCmd shows the registered tables and the migration gate state.
func statusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registered tables and gate state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			tables := client.Schemas()
			pending := client.PendingMigrations()
			root, err := client.SchemaFingerprint()
			if err != nil {
				return err
			}

			// JSON output mode for CI/CD integration
			if jsonOutput {
				out := map[string]any{
					"gate_state":  client.MigrationState(),
					"tables":      len(tables),
					"pending":     len(pending),
					"schema_root": root,
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
				if len(pending) > 0 {
					os.Exit(1)
				}
				return nil
			}

			fmt.Printf("gate: %s\n", cli.Info(client.MigrationState()))
			fmt.Printf("schema root: %s\n\n", cli.Dim(root))

			table := cli.NewTable("TABLE", "COLUMNS", "PENDING")
			pendingByTable := make(map[string]bool, len(pending))
			for _, m := range pending {
				pendingByTable[m.Table] = true
			}
			for _, t := range tables {
				flag := ""
				if pendingByTable[t.Name] {
					flag = cli.Warning("yes")
				}
				table.AddRow(t.Name, strconv.Itoa(len(t.Columns)), flag)
			}
			fmt.Print(table.String())

			if len(pending) > 0 {
				fmt.Println()
				fmt.Println(cli.Warning(strconv.Itoa(len(pending))+" migration(s) awaiting decision") +
					cli.Dim("  (keystone migrate diff)"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON for CI/CD")
	return cmd
}
