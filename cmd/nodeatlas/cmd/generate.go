package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/nodeatlas/internal/generate"
	"github.com/agentstation/nodeatlas/pkg/constants"
	"github.com/agentstation/nodeatlas/pkg/workflows"
)

var (
	generateQuery string
	generateModel string
	generateOut   string
	generateNodes int
)

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate a workflow document from a description",
	Long: `Generate assembles a prompt from the catalog's bounded projection,
asks the model for a workflow JSON document, and validates the result.

The API key is read from GEMINI_API_KEY or NODEATLAS_GEMINI_API_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateQuery, "query", "", "narrow the catalog projection with a search query first")
	generateCmd.Flags().StringVar(&generateModel, "model", "", "generation model (default "+generate.DefaultModel+")")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "write the workflow JSON to a file instead of stdout")
	generateCmd.Flags().IntVar(&generateNodes, "nodes", workflows.DefaultLimits.Nodes, "how many catalog nodes to project into the prompt")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = viper.GetString("gemini_api_key")
	}

	atlas, s, err := loadAtlas(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	limits := workflows.DefaultLimits
	if generateNodes > 0 {
		limits.Nodes = generateNodes
	}
	summaries, err := atlas.Project(cmd.Context(), generateQuery,
		workflows.SelectionPolicy{Limits: limits})
	if err != nil {
		return err
	}

	gen, err := generate.New(cmd.Context(), apiKey, generate.WithModel(generateModel))
	if err != nil {
		return err
	}
	result, err := gen.Generate(cmd.Context(), args[0], summaries)
	if err != nil {
		return err
	}

	for _, warning := range result.Validation.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
	if !result.Validation.OK() {
		for _, issue := range result.Validation.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", issue)
		}
		return fmt.Errorf("generated workflow is structurally invalid")
	}

	encoded, err := result.Workflow.Encode()
	if err != nil {
		return err
	}
	if generateOut != "" {
		return os.WriteFile(generateOut, append(encoded, '\n'), constants.FilePermissions)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
