/*
Package observability provides tools for monitoring the Souvenir engine.

Metrics are collected through domain.LifecycleHooks, so any engine can be
instrumented by merging the hooks returned by Metrics.Hooks into its own.
*/
package observability
