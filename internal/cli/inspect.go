package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reedipher/teatime/internal/browser"
	"github.com/reedipher/teatime/internal/inspect"
)

func newInspectCmd() *cobra.Command {
	var (
		pageURL  string
		pageFile string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Analyze the structure of a page to derive selectors",
		Long: `Analyzes a page's structure (inputs, buttons, forms, element counts)
so selectors can be derived when the site layout changes. Reads either a live
page via --url or a saved HTML snapshot via --file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (pageURL == "") == (pageFile == "") {
				return fmt.Errorf("exactly one of --url or --file is required")
			}

			var (
				content string
				source  string
			)
			if pageFile != "" {
				data, err := os.ReadFile(pageFile)
				if err != nil {
					return fmt.Errorf("reading snapshot: %w", err)
				}
				content = string(data)
				source = pageFile
			} else {
				session, err := browser.NewSession(browser.Options{Headless: true})
				if err != nil {
					return err
				}
				defer session.Close()

				page := session.Page()
				if err := page.Goto(pageURL, browser.WaitDOMContentLoaded); err != nil {
					return err
				}
				content, err = page.Content()
				if err != nil {
					return err
				}
				source = pageURL
			}

			report, err := inspect.Analyze(content)
			if err != nil {
				return err
			}
			return WriteOutput(os.Stdout, &InspectResult{Source: source, Report: report}, outputFormat())
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "Live page URL to inspect")
	cmd.Flags().StringVar(&pageFile, "file", "", "Saved HTML snapshot to inspect")
	return cmd
}
