package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/output"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show queued changes awaiting upload",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		entries, err := a.queue.Drain()
		if err != nil {
			output.Error("read queue: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(entries)
		}

		if len(entries) == 0 {
			output.Subtle("queue is empty")
			return nil
		}
		for _, e := range entries {
			age := time.Since(e.EnqueuedAt).Round(time.Second)
			output.Info("%-7s %-15s %s (queued %s ago)", e.Op, e.Table, e.ID, age)
		}
		return nil
	},
}

func init() {
	pendingCmd.Flags().Bool("json", false, "output entries as JSON")
	rootCmd.AddCommand(pendingCmd)
}
