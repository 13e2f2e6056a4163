/*
Package runner connects the Souvenir engine to a terminal or a pipe.

It provides the two presentation strategies (human-readable text and
JSON Lines), the input pump that turns lines read from stdin into engine
commands, and a SignalManager for Ctrl+C handling.

# Usage

	presenter := runner.NewTextPresenter(os.Stdout)
	eng, _ := souvenir.New(souvenir.WithPresenter(presenter))

	ctx := sm.Context()
	go runner.NewInput(eng, runner.ParseText).Run(ctx, runner.Pump(os.Stdin))
	report, err := eng.Run(ctx, modules)
*/
package runner
