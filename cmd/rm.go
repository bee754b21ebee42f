package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/models"
	"github.com/keval/invo/internal/output"
)

var rmCmd = &cobra.Command{
	Use:   "rm <table> <id>",
	Short: "Delete a record",
	Long: `Deletes a record on the backend when online. When offline the delete is
queued and the record disappears from the local cache immediately; the
backend is told on the next sync.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, id := args[0], args[1]
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
		if a.probeOnline(ctx) {
			if err := a.client.Delete(ctx, table, id); err != nil {
				output.Error("delete %s/%s: %v", table, id, err)
				return err
			}
			if err := a.store.Delete(table, id); err != nil {
				output.Warning("deleted remotely, cache cleanup failed: %v", err)
			}
			output.Success("deleted %s/%s", table, id)
			return nil
		}

		entry, err := a.engine.QueueChange(table, models.OpDelete, models.Record{"id": id})
		if err != nil {
			output.Error("queue delete: %v", err)
			return err
		}
		output.Warning("offline: delete queued as %s", entry.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
