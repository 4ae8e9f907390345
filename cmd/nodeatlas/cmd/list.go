package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/search"
)

var (
	listCategory string
	listSort     string
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog nodes",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "filter by category (Trigger, Core, App, LangChain, Community, Custom)")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "name-asc", "sort order: name-asc, name-desc, type, category")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum rows (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	atlas, s, err := loadAtlas(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	opts := search.Options{Sort: search.SortMode(listSort)}
	if listCategory != "" {
		opts.Categories = []catalogs.Category{catalogs.Category(listCategory)}
	}
	nodes := atlas.Search("", opts)
	if listLimit > 0 && len(nodes) > listLimit {
		nodes = nodes[:listLimit]
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), nodeRows(nodes))
}

// nodeRow is the list/search output shape.
type nodeRow struct {
	Type        string `json:"node_type"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Sources     string `json:"sources"`
}

func nodeRows(nodes []catalogs.Node) []nodeRow {
	rows := make([]nodeRow, 0, len(nodes))
	for _, n := range nodes {
		srcs := ""
		for i, s := range n.Sources {
			if i > 0 {
				srcs += ","
			}
			srcs += string(s)
		}
		rows = append(rows, nodeRow{
			Type:        n.Type,
			DisplayName: n.DisplayName,
			Category:    string(n.Category),
			Sources:     srcs,
		})
	}
	return rows
}
