/*
Package domain contains the core domain models of the Souvenir engine.

It defines the foreign modules being observed, the static question definitions,
the presentable question instances and batches, and the cooperative step values
exchanged between tasks and the loop that drives them. This package is kept pure
and free of I/O, following the same hexagonal layout as the rest of the engine.

# Key Entities

  - Module: one foreign component instance (identity, type tag, display name, object).
  - QuestionDef: static template and answer metadata for one kind of question.
  - QandA: one fully formatted, answer-populated question.
  - Batch: the questions produced by one module pass, with its solve-count snapshot.
  - Step: a suspension point yielded by a cooperative task.
  - AbandonError: the recoverable "module shape did not match" failure.
*/
package domain
