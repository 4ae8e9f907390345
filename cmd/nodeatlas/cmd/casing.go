package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/nodeatlas/pkg/casing"
)

var casingCmd = &cobra.Command{
	Use:   "casing",
	Short: "Audit and repair identifier casing in the record store",
	Long: `Documentation-derived scrapes report node types in lowercase while
workflows need the exact camelCase identifiers. The casing commands
compare stored identifiers against the curated correction table.`,
}

var casingCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report stored identifiers with non-canonical casing",
	RunE:  runCasingCheck,
}

var casingApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Rewrite stored identifiers to canonical casing",
	RunE:  runCasingApply,
}

func init() {
	casingCmd.AddCommand(casingCheckCmd)
	casingCmd.AddCommand(casingApplyCmd)
	rootCmd.AddCommand(casingCmd)
}

func runCasingCheck(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, err := casing.Embedded()
	if err != nil {
		return err
	}
	mismatches, err := s.CheckCasing(cmd.Context(), table)
	if err != nil {
		return err
	}
	if len(mismatches) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "all identifiers canonical")
		return nil
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), mismatches)
}

func runCasingApply(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, err := casing.Embedded()
	if err != nil {
		return err
	}
	n, err := s.ApplyCasing(cmd.Context(), table)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows updated\n", n)
	return nil
}
