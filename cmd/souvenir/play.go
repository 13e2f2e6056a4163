package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/internal/demo"
	"github.com/aretw0/souvenir/internal/presentation/tui"
	"github.com/aretw0/souvenir/pkg/adapters/memory"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/runner"
	"github.com/aretw0/souvenir/pkg/scheduler"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play against a simulated bomb in the terminal",
	Long: `Generates a bomb of demo modules, solves them one by one in the background
and asks you about them. Answer with the number or letter of your choice.`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	playCmd.Flags().IntP("modules", "n", 6, "Number of modules on the bomb")
	playCmd.Flags().Duration("pace", demo.DefaultPace, "Time between two simulated solves")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	cat, err := a.catalog()
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("modules")
	pace, _ := cmd.Flags().GetDuration("pace")

	mods := demo.Generate(a.rand, n)
	bomb := memory.NewBomb(demo.Names(mods)...)
	out := cmd.OutOrStdout()

	var (
		presenter scheduler.Presenter
		parse     runner.Parser
	)
	if a.cfg.JSON {
		presenter = runner.NewJSONPresenter(out, func(err error) {
			a.logger.Error("Failed to write event", "err", err)
		})
		parse = runner.ParseJSON
	} else {
		tui.PrintBanner(out, souvenir.Version)
		presenter = runner.NewTextPresenter(out)
		parse = runner.ParseText
	}

	opts := append(a.options(cat),
		souvenir.WithBombState(bomb),
		souvenir.WithExclusions(memory.NewExclusions(a.cfg.Excluded...)),
		souvenir.WithPresenter(presenter),
		souvenir.WithLifecycleHooks(strikeHooks(bomb, a.logger)),
		souvenir.WithTask("defuser", demo.Defuser(mods, pace, a.rand, func(m domain.Module) {
			bomb.Solve(m.DisplayName)
		})),
	)
	engine, err := souvenir.New(opts...)
	if err != nil {
		return err
	}

	sm := runner.NewSignalManager(cmd.Context())
	defer sm.Stop()
	ctx, cancel := context.WithCancel(sm.Context())
	defer cancel()

	in := runner.NewInput(engine, parse)
	in.Logger = a.logger
	if !a.cfg.JSON {
		in.Feedback = func(err error) { fmt.Fprintln(out, err) }
	}
	go func() {
		// The run ends with the input: a quit, the end of stdin or a read error.
		if err := in.Run(ctx, runner.Pump(cmd.InOrStdin())); err != nil && !errors.Is(err, context.Canceled) && !sm.CheckRace() {
			a.logger.Warn("Input failed", "err", err)
		}
		cancel()
	}()

	report, err := engine.Run(ctx, mods)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if sm.Interrupted() {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted.")
	}
	a.logger.Info("Session summary",
		"presented", report.Presented,
		"correct", report.Correct,
		"strikes", report.Strikes,
		"exploded", report.Exploded,
		"elapsed", report.Elapsed,
	)
	if !a.cfg.JSON {
		fmt.Fprintf(out, "\nAsked %d questions: %d correct, %d strikes.\n", report.Presented, report.Correct, report.Strikes)
	}
	return nil
}
