package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/models"
	"github.com/keval/invo/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List records, preferring live server data",
	Long: `Lists records for the configured company. While online the backend is
queried and the result refreshes the local cache; while offline (or when the
backend errors) the cached records are served instead.

Tables: ` + strings.Join(models.SyncedTables, ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := args[0]
		if !models.IsSyncedTable(table) {
			output.Error("unknown table %q", table)
			return fmt.Errorf("unknown table %q", table)
		}

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		ctx := context.Background()
		a.probeOnline(ctx)

		fetch := func(ctx context.Context) ([]models.Record, error) {
			if models.TenantScoped(table) {
				return a.client.SelectAllByTenant(ctx, table, a.tenant)
			}
			return a.client.SelectAll(ctx, table)
		}

		recs, err := a.engine.GetDataWithFallback(ctx, table, a.tenant, fetch)
		if err != nil {
			output.Error("list %s: %v", table, err)
			return err
		}

		if len(recs) == 0 {
			output.Subtle("no %s", table)
			return nil
		}
		return output.JSON(recs)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
