package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
	"github.com/agentstation/nodeatlas/pkg/search"
)

var (
	searchCategory string
	searchSort     string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search catalog nodes with synonym expansion",
	Long: `Search matches the query (and its synonyms) against node identifiers,
display names, and descriptions, and ranks results by relevance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "filter by category")
	searchCmd.Flags().StringVarP(&searchSort, "sort", "s", "relevance", "sort order: relevance, name-asc, name-desc, type, category")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 25, "maximum rows (0 = all)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	atlas, s, err := loadAtlas(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	opts := search.Options{Sort: search.SortMode(searchSort)}
	if searchCategory != "" {
		opts.Categories = []catalogs.Category{catalogs.Category(searchCategory)}
	}
	nodes := atlas.Search(args[0], opts)
	if searchLimit > 0 && len(nodes) > searchLimit {
		nodes = nodes[:searchLimit]
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), nodeRows(nodes))
}
