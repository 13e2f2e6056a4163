// Package demo provides a small simulated bomb: foreign module objects, the
// handlers that question them, a matching catalog and a task that solves the
// modules one by one.
//
// The module structs keep their state in unexported fields and embedded
// structs, so the handlers have to reach it the same way real handlers do:
// through package reflection.
package demo
