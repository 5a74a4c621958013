package main

import (
	"fmt"

	"budget/internal/backend"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write all transactions and active rules to a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				if err := b.Reconciler.ExportFile(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported ledger to %s\n", args[0])
				return nil
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Load a JSON snapshot into the ledger",
		Long: `import validates every record before writing anything. In merge mode
records already present are skipped; replace clears the ledger first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := services.ParseImportMode(modeFlag)
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				res, err := b.Reconciler.ImportFile(cmd.Context(), args[0], mode)
				if err != nil {
					return err
				}
				printImportResult(cmd.OutOrStdout(), mode, res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "merge", "merge or replace")
	return cmd
}
