package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/internal/export"
	"github.com/agentstation/nodeatlas/pkg/errors"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as a markdown document",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	atlas, s, err := loadAtlas(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return errors.WrapIO("create", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	return export.Markdown(w, atlas.Catalog())
}
