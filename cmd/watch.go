package cmd

import (
	"context"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/config"
	"github.com/keval/invo/internal/monitor"
	"github.com/keval/invo/internal/output"
	"github.com/keval/invo/pkg/dashboard"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch connectivity and sync in the background",
	Long: `Polls the backend health endpoint, syncs automatically when connectivity
returns, and re-syncs periodically while online. With --dashboard, a live
status screen is shown with a manual sync key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		useDashboard, _ := cmd.Flags().GetBool("dashboard")

		if !config.GetSyncEnabled() {
			output.Warning("background sync is disabled (sync.enabled / INVO_SYNC_AUTO)")
			return nil
		}

		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		mon := monitor.New(a.engine, a.client, a.tenant)
		mon.ProbeInterval = config.GetProbeInterval()
		mon.SyncInterval = config.GetSyncInterval()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if useDashboard {
			go mon.Run(ctx)
			p := tea.NewProgram(dashboard.New(mon), tea.WithAltScreen())
			_, err := p.Run()
			return err
		}

		output.Info("watching backend at %s (ctrl-c to stop)", config.GetServerURL())
		mon.Run(ctx)
		return nil
	},
}

func init() {
	watchCmd.Flags().Bool("dashboard", false, "show a live status dashboard")
	rootCmd.AddCommand(watchCmd)
}
