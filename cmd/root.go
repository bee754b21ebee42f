package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/config"
	"github.com/keval/invo/internal/queue"
	"github.com/keval/invo/internal/remote"
	"github.com/keval/invo/internal/store"
	"github.com/keval/invo/internal/sync"
)

var baseDir string

// SetVersion sets the version string
func SetVersion(v string) {
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "invo",
	Short: "Offline-first invoicing client",
	Long: `invo - an offline-first client for a hosted invoicing backend.

Reads prefer live server data and fall back to the local cache; writes made
while disconnected are queued durably and reconciled when connectivity
returns.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)
	rootCmd.Version = "dev"
	rootCmd.SetVersionTemplate("invo {{.Version}}\n")
}

func initBaseDir() {
	if v := os.Getenv("INVO_DIR"); v != "" {
		baseDir = v
		return
	}
	var err error
	baseDir, err = os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
}

// getBaseDir returns the directory the local cache lives under
func getBaseDir() string {
	return baseDir
}

// app bundles everything a command needs to talk to the sync layer.
type app struct {
	store  *store.Store
	queue  *queue.Queue
	engine *sync.Engine
	client *remote.Client
	tenant string
}

func (a *app) close() {
	a.store.Close()
}

// openApp opens the local cache and wires the engine against the configured
// backend. The engine starts offline; call probeOnline before read/write
// paths that care.
func openApp() (*app, error) {
	tenant := config.GetCompanyID()
	if tenant == "" {
		return nil, fmt.Errorf("no company configured (run 'invo init' or set INVO_COMPANY_ID)")
	}

	deviceID, err := config.GetDeviceID()
	if err != nil {
		return nil, fmt.Errorf("get device id: %w", err)
	}

	st, err := store.Open(getBaseDir())
	if err != nil {
		return nil, err
	}

	q := queue.New(st.Conn())
	client := remote.New(config.GetServerURL(), config.GetAPIKey(), deviceID)
	engine := sync.New(st, q, client)

	return &app{store: st, queue: q, engine: engine, client: client, tenant: tenant}, nil
}

// probeOnline pings the backend once and records the result on the engine.
func (a *app) probeOnline(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := a.client.HealthCheck(cctx)
	a.engine.SetOnline(err == nil)
	return err == nil
}
