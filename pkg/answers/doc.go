// Package answers builds multiple-choice answer sets.
//
// Synthesize combines the correct answers, an optional fixed pool, optional
// preferred wrong answers and an optional generator into a deduplicated,
// shuffled set with the correct answer at a random index. It has no state of
// its own; all randomness comes from the *rand.Rand passed in.
package answers
