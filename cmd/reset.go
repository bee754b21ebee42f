package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/output"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the offline cache and all queued changes",
	Long: `Wipes every cached table, the mutation queue, and recorded sync times.
Queued changes that were never uploaded are LOST. Use when switching
companies or abandoning offline work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		pending, err := a.queue.Len()
		if err != nil {
			output.Error("read queue: %v", err)
			return err
		}

		if !yes {
			confirmed := false
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Discard cache and %d queued change(s)?", pending)).
				Value(&confirmed)
			if err := prompt.Run(); err != nil {
				return err
			}
			if !confirmed {
				output.Subtle("reset cancelled")
				return nil
			}
		}

		if err := a.queue.Clear(); err != nil {
			output.Error("clear queue: %v", err)
			return err
		}
		if err := a.store.ClearAll(); err != nil {
			output.Error("clear cache: %v", err)
			return err
		}
		if err := a.store.ClearSyncMeta(); err != nil {
			output.Error("clear sync metadata: %v", err)
			return err
		}

		output.Success("local cache and queue cleared (%d pending change(s) discarded)", pending)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "skip confirmation")
	rootCmd.AddCommand(resetCmd)
}
