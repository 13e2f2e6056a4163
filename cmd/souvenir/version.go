package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/souvenir"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of souvenir",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "souvenir version %s\n", strings.TrimSpace(souvenir.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
