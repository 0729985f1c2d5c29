package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keystone-gg/keystone/internal/cli"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Review and decide pending schema migrations",
	}
	cmd.AddCommand(migrateDiffCmd(), migrateAcceptCmd(), migrateRejectCmd())
	return cmd
}

// migrateDiffCmd shows what an accept would change, without deciding.
func migrateDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Print(cli.RenderMigrations(client.PendingMigrations()))
			return nil
		},
	}
}

func migrateAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			pending := client.PendingMigrations()
			if len(pending) == 0 {
				fmt.Println(cli.Info("nothing to apply"))
				return nil
			}

			fmt.Print(cli.RenderMigrations(pending))
			if err := client.AcceptMigrations(); err != nil {
				return err
			}
			fmt.Printf("%s %d migration(s) applied\n", cli.Success("done:"), len(pending))
			return nil
		},
	}
}

func migrateRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject",
		Short: "Discard pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			pending := client.PendingMigrations()
			if len(pending) == 0 {
				fmt.Println(cli.Info("nothing to discard"))
				return nil
			}

			if err := client.RejectMigrations(); err != nil {
				return err
			}
			fmt.Printf("%s %d migration(s) discarded; the database was not touched\n",
				cli.Warning("rejected:"), len(pending))
			return nil
		},
	}
}
