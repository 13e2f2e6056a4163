// Package supervisor drives each module's question-producing handler on the
// engine loop, one step at a time.
//
// Every module task moves through Pending, Running and one of Completed,
// Abandoned or Cancelled. A step failing with a domain.AbandonError, any other
// error, or a panic ends only that module's task. The end-of-run warning flag
// on the questions.Ledger is raised for abandonment, faults, and modules that
// finished without registering a batch or declaring that they produce none.
package supervisor
