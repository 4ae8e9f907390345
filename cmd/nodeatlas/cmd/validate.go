package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/pkg/errors"
	"github.com/agentstation/nodeatlas/pkg/workflows"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.json>",
	Short: "Validate a workflow document",
	Long: `Validate checks a workflow JSON document against the exported artifact
format. Missing required fields are errors; missing recommended fields
are warnings. The exit status is nonzero only for errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.WrapIO("read", args[0], err)
	}

	result, err := workflows.Validate(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	for _, issue := range result.Errors {
		fmt.Fprintf(out, "error: %s\n", issue)
	}
	if !result.OK() {
		return fmt.Errorf("%s: %d error(s)", args[0], len(result.Errors))
	}
	fmt.Fprintf(out, "%s: valid (%d warning(s))\n", args[0], len(result.Warnings))
	return nil
}
