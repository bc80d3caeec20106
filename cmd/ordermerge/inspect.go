package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flexigpt/ordermerge-go/pdfformat"
)

func newInspectCmd(root *rootFlags) *cobra.Command {
	var rootDir string
	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show the identity, page count and mergeability of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			docs, err := loadDocuments(cmd.Context(), cfg, rootDir, args)
			if err != nil {
				return err
			}
			pdf, err := pdfformat.New(pdfformat.WithValidation(cfg.PDF.Validation))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bad := 0
			for i, d := range docs {
				content := d.Content()
				if _, err := pdf.Validate(content); err != nil {
					bad++
					fmt.Fprintf(out, "%d. %s: not mergeable: %v\n", i+1, d.ID(), err)
					continue
				}
				info, err := pdfformat.Inspect(content)
				if err != nil {
					fmt.Fprintf(out, "%d. %s: mergeable, %d bytes\n", i+1, d.ID(), d.Size())
					continue
				}
				fmt.Fprintf(out, "%d. %s: %d pages, %d bytes\n", i+1, d.ID(), info.Pages, d.Size())
			}
			if bad == len(docs) {
				return fmt.Errorf("no mergeable documents among %d files", len(docs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rootDir, "root", "", "resolve FILE arguments under this directory")
	return cmd
}
