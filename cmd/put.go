package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/models"
	"github.com/keval/invo/internal/output"
)

var putCmd = &cobra.Command{
	Use:   "put <table> <json>",
	Short: "Insert or update a record",
	Long: `Writes a record to the backend when online. When offline the change is
appended to the durable mutation queue and mirrored into the local cache, so
it is visible immediately and uploaded on the next sync.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := args[0]
		update, _ := cmd.Flags().GetBool("update")

		if !models.IsSyncedTable(table) {
			output.Error("unknown table %q", table)
			return fmt.Errorf("unknown table %q", table)
		}

		rec, err := models.UnmarshalRecord([]byte(args[1]))
		if err != nil {
			output.Error("invalid record JSON: %v", err)
			return err
		}

		op := models.OpInsert
		if update {
			op = models.OpUpdate
			if rec.ID() == "" {
				output.Error("update requires an \"id\" field")
				return fmt.Errorf("update requires an id")
			}
		}

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		ctx := context.Background()
		if a.probeOnline(ctx) {
			var saved models.Record
			if op == models.OpInsert {
				saved, err = a.client.Insert(ctx, table, rec)
			} else {
				saved, err = a.client.Update(ctx, table, rec.ID(), rec)
			}
			if err != nil {
				output.Error("%s %s: %v", op, table, err)
				return err
			}
			if err := a.store.Put(table, saved); err != nil {
				output.Warning("saved remotely, cache refresh failed: %v", err)
			}
			output.Success("%s saved to %s (id %s)", op, table, saved.ID())
			return nil
		}

		entry, err := a.engine.QueueChange(table, op, rec)
		if err != nil {
			output.Error("queue change: %v", err)
			return err
		}
		output.Warning("offline: change queued as %s", entry.ID)
		return nil
	},
}

func init() {
	putCmd.Flags().Bool("update", false, "update an existing record instead of inserting")
	rootCmd.AddCommand(putCmd)
}
