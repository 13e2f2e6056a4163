package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/souvenir/pkg/questions"
)

var previewCmd = &cobra.Command{
	Use:   "preview [question-id...]",
	Short: "Print example questions built from the catalog",
	Long: `Builds every question (or only the given ones) from its example answers and
example format arguments. The correct answer is shown in brackets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		cat, err := a.catalog()
		if err != nil {
			return err
		}
		ordinals, _ := cmd.Flags().GetBool("ordinals")
		asJSON, _ := cmd.Flags().GetBool("json")

		qs, err := questions.Preview(cat, a.rand, questions.PreviewOptions{IDs: args, Ordinals: ordinals, Logger: a.logger})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(qs)
		}
		for _, q := range qs {
			fmt.Fprintln(out, q.Debug())
		}
		fmt.Fprintf(out, "\n%d questions previewed.\n", len(qs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().Bool("ordinals", false, `Also preview the "you solved first" variant`)
	previewCmd.Flags().Bool("json", false, "Print the questions as JSON")
}
