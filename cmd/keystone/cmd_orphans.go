package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/keystone-gg/keystone/internal/cli"
)

func orphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Find and clean up tables no schema claims",
	}
	cmd.AddCommand(orphansScanCmd(), orphansCleanupCmd())
	return cmd
}

func orphansScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List orphaned tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			orphans, err := client.ScanOrphans()
			if err != nil {
				return err
			}
			if len(orphans) == 0 {
				fmt.Println(cli.Success("no orphaned tables"))
				return nil
			}

			table := cli.NewTable("TABLE", "FIRST SEEN")
			for _, o := range orphans {
				table.AddRow(o.Table, o.FirstSeen.Format(time.RFC3339))
			}
			fmt.Print(table.String())
			fmt.Println()
			fmt.Println(cli.Dim("first-seen resets on restart; cleanup honors the grace period from there"))
			return nil
		},
	}
}

func orphansCleanupCmd() *cobra.Command {
	var graceDays int
	var yes bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop orphaned tables past the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("cleanup drops tables; re-run with --yes to confirm")
			}

			client, err := openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			dropped, err := client.CleanupOrphans(graceDays)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d table(s) dropped\n", cli.Warning("cleanup:"), dropped)
			return nil
		},
	}

	cmd.Flags().IntVar(&graceDays, "grace", 0, "Grace period in days (default: configured value)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the destructive cleanup")
	return cmd
}
