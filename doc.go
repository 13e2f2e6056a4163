/*
Package souvenir is a memory-quiz engine for puzzle "bombs" assembled from independent modules.

While the modules of a bomb are being solved, Souvenir observes each one through its
registered handler, records facts about it, and turns those facts into multiple-choice
questions that are asked later, paced so that they only concern modules solved well
before the question appears.

# Concept

The engine runs everything on one cooperative loop. Every module gets a task that drives
its handler, a lazy sequence of steps that suspends until the module is solved and then
builds a batch of questions. The scheduler task picks eligible batches, presents one
question at a time and resolves it through Answer or Reveal. No lock is needed around
module objects or engine state: queries from other goroutines are queued onto the loop.

# Key Features

  - Cooperative Tasks: handlers are iter.Seq values; a module whose shape does not match
    abandons only its own task.
  - Reflection Accessors: typed, validated access to the unexported state of foreign module objects.
  - Answer Synthesis: distinct wrong answers from fixed pools, preferred answers and generators.
  - Pacing: questions only concern modules solved before the batch snapshot.
  - Pluggable Boundaries: bomb state, exclusions, presentation and grid rendering are interfaces.

# Usage

	cat, _ := catalog.LoadFile("questions.yaml")
	reg := registry.NewRegistry()
	reg.Register("Wires", wiresHandler)

	eng, err := souvenir.New(
		souvenir.WithCatalog(cat),
		souvenir.WithRegistry(reg),
		souvenir.WithBombState(bomb),
		souvenir.WithPresenter(presenter),
	)
	if err != nil {
		log.Fatal(err)
	}

	// From the UI goroutine: eng.Current(ctx), eng.Answer(ctx, i), eng.Reveal(ctx).
	report, err := eng.Run(ctx, modules)
*/
package souvenir
