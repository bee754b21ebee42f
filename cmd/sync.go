package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/monitor"
	"github.com/keval/invo/internal/output"
	invosync "github.com/keval/invo/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile queued changes with the backend",
	Long: `Uploads pending changes in the order they were queued, then re-downloads
every company table to refresh the local cache. Failed uploads stay queued
for the next run; the download still happens so the cache reflects the
freshest server state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		statusOnly, _ := cmd.Flags().GetBool("status")
		force, _ := cmd.Flags().GetBool("force")

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		ctx := context.Background()
		a.probeOnline(ctx)
		mon := monitor.New(a.engine, a.client, a.tenant)

		if statusOnly {
			return printStatus(mon)
		}

		res, err := mon.SyncNow(ctx, force)
		if errors.Is(err, monitor.ErrOffline) {
			output.Warning("backend unreachable; changes stay queued (use --force to try anyway)")
			return err
		}
		if errors.Is(err, invosync.ErrSyncInProgress) {
			output.Warning("a sync is already running")
			return err
		}
		if err != nil {
			output.Error("sync: %v", err)
			return err
		}

		if res.Err != nil {
			output.Warning("sync finished with errors: %v", res.Err)
		} else {
			output.Success("synced: %d change(s) uploaded", res.Uploaded)
		}
		if !res.Downloaded {
			output.Warning("download phase did not complete; cache may be stale")
		}
		return nil
	},
}

func printStatus(mon *monitor.Monitor) error {
	st, err := mon.Status()
	if err != nil {
		output.Error("status: %v", err)
		return err
	}

	output.Info("%s", output.OnlineBadge(st.IsOnline))
	output.Info("pending changes: %d", st.Sync.PendingChanges)
	output.Info("last synced:     %s", output.SyncAge(st.Sync.LastSyncTime))
	if st.Sync.IsSyncing {
		output.Info("state:           syncing")
	}
	if st.Sync.Error != "" {
		output.Warning("last sync error: %s", st.Sync.Error)
	}
	return nil
}

func init() {
	syncCmd.Flags().Bool("status", false, "show sync status without syncing")
	syncCmd.Flags().Bool("force", false, "attempt a sync even while offline")
	rootCmd.AddCommand(syncCmd)
}
