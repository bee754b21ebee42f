package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/config"
	"github.com/keval/invo/internal/output"
	"github.com/keval/invo/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the local cache and configure the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		company, _ := cmd.Flags().GetString("company")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if server == "" {
			server = cfg.ServerURL
		}
		if company == "" {
			company = cfg.CompanyID
		}

		// Prompt for anything still missing
		if server == "" || company == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Backend URL").
						Placeholder("http://localhost:8080").
						Value(&server),
					huh.NewInput().
						Title("Company ID").
						Description("The tenant whose data this machine mirrors").
						Value(&company),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}
		if company == "" {
			return fmt.Errorf("a company id is required")
		}

		cfg.ServerURL = server
		cfg.CompanyID = company
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		if _, err := config.GetDeviceID(); err != nil {
			return fmt.Errorf("generate device id: %w", err)
		}

		st, err := store.Initialize(getBaseDir())
		if err != nil {
			return err
		}
		defer st.Close()

		output.Success("initialized local cache for company %s", company)
		output.Subtle("cache: %s/.invo/cache.db", getBaseDir())
		return nil
	},
}

func init() {
	initCmd.Flags().String("server", "", "backend base URL")
	initCmd.Flags().String("company", "", "tenant/company id")
	rootCmd.AddCommand(initCmd)
}
