package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record and catalog statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// statsReport is the stats output shape.
type statsReport struct {
	Records       map[string]int `json:"records"`
	CatalogNodes  int            `json:"catalog_nodes"`
	ByCategory    map[string]int `json:"by_category"`
	SnapshotEpoch int64          `json:"snapshot_version"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	atlas, s, err := loadAtlas(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	counts, err := s.Count(cmd.Context())
	if err != nil {
		return err
	}

	catalog := atlas.Catalog()
	report := statsReport{
		Records:       make(map[string]int, len(counts)),
		CatalogNodes:  catalog.Len(),
		ByCategory:    make(map[string]int),
		SnapshotEpoch: catalog.Version(),
	}
	for _, id := range sources.IDs() {
		report.Records[string(id)] = counts[id]
	}
	for cat, n := range catalog.Counts() {
		if cat != catalogs.CategoryUnknown || n > 0 {
			report.ByCategory[string(cat)] = n
		}
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), report)
}
