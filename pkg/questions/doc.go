/*
Package questions turns module facts into presentable questions.

A Builder owns the link between handlers and the batch pool. Each module gets
a Handle; its handler records the solve, asks for text, sprite or grid
questions by catalog identifier, and registers them as one batch:

	ordinal := h.MarkSolved()
	q := h.Text("wires_cut", questions.Ask[string]{
		Correct: []string{color},
		Args:    []string{"first"},
	})
	h.Add(q)

Malformed questions (answer outside the declared pool, no solve recorded, no
answers to offer) are producer defects: they are logged and come back nil, and
Add skips nil entries. The Ledger keeps the per-run counters: modules per
type, solves per type, batches per module, the set of modules known to produce
nothing, and the end-of-run warning flag.
*/
package questions
