package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keystone-gg/keystone/internal/cli"
)

// syncCmd synchronizes the YAML schema directory against the database.
// Missing tables are created; structural changes land on the gate and are
// printed for review. Exits 1 when a decision is needed, so scripted
// deploys can detect it.
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize schema files against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			tables := client.Schemas()
			fmt.Printf("%s %d table(s) registered\n", cli.Success("synced:"), len(tables))

			pending := client.PendingMigrations()
			if len(pending) == 0 {
				fmt.Println(cli.Success("database matches declared schemas"))
				return nil
			}

			fmt.Println()
			fmt.Print(cli.RenderMigrations(pending))
			fmt.Println(cli.Warning("pending migrations need a decision:") +
				" run " + cli.Code("keystone migrate accept") + " or " + cli.Code("keystone migrate reject"))
			os.Exit(1)
			return nil
		},
	}
}
