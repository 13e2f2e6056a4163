package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/souvenir/internal/demo"
)

var validateCmd = &cobra.Command{
	Use:   "validate [catalog]",
	Short: "Check a question catalog for authoring mistakes",
	Long: `Loads the catalog and reports every malformed definition: unknown layouts or
answer types, text questions without answers, bad generators and placeholders
without example arguments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			a.cfg.Catalog = args[0]
		}
		cat, err := a.catalog()
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, typ := range demo.Registry().Types() {
			if len(cat.ForModuleType(typ)) == 0 {
				fmt.Fprintf(out, "warning: no questions for module type %s\n", typ)
			}
		}
		fmt.Fprintf(out, "Catalog is valid: %d questions ✅\n", cat.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
