// Package runtime provides the single-goroutine cooperative loop that drives
// module tasks and the presentation scheduler.
//
// Tasks are iter.Seq[domain.Step] values pulled one step at a time. Shared
// state touched only from tasks and posted functions needs no locking.
// Other goroutines interact with the loop through Post, Call and Query.
package runtime
