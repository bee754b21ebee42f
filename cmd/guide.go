package cmd

import (
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keval/invo/internal/output"
)

//go:embed guide.md
var guideText string

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the quickstart guide",
	RunE: func(cmd *cobra.Command, args []string) error {
		rendered, err := output.RenderMarkdown(guideText)
		if err != nil {
			// Fall back to the raw text if the terminal renderer fails
			fmt.Println(guideText)
			return nil
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(guideCmd)
}
