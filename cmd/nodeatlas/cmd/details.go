package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/pkg/catalogs"
)

var detailsCmd = &cobra.Command{
	Use:   "details <node-type>",
	Short: "Show one node with its operations, parameters, and credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}

// nodeDetails is the details output shape.
type nodeDetails struct {
	Node    catalogs.Node    `json:"node"`
	Details catalogs.Details `json:"details"`
}

func runDetails(cmd *cobra.Command, args []string) error {
	atlas, s, err := loadAtlas(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	node, err := atlas.Node(args[0])
	if err != nil {
		return err
	}
	details, err := atlas.Details(cmd.Context(), node.Type)
	if err != nil {
		return err
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), nodeDetails{Node: node, Details: details})
}
