package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "souvenir",
	Short: "Souvenir asks questions about the modules you already solved",
	Long: `Souvenir watches a bomb of puzzle modules, collects facts from each module as
it is solved and quizzes you on them afterwards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("catalog", "", "Path to a question catalog (defaults to the built-in demo catalog)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Random seed; 0 picks one")
}
