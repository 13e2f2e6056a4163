package scheduler

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Pool holds batches waiting to be asked. Loop goroutine only.
type Pool struct {
	batches []domain.Batch
}

// Add appends a batch.
func (p *Pool) Add(b domain.Batch) {
	p.batches = append(p.batches, b)
}

// Len is the number of pending batches.
func (p *Pool) Len() int { return len(p.batches) }

// Eligible returns the indexes of batches that may be asked. With all set
// every batch qualifies; otherwise only those created before the last solve.
func (p *Pool) Eligible(solved int, all bool) []int {
	var out []int
	for i, b := range p.batches {
		if all || b.Snapshot < solved {
			out = append(out, i)
		}
	}
	return out
}

// Take removes and returns the batch at index i.
func (p *Pool) Take(i int) domain.Batch {
	b := p.batches[i]
	p.batches = append(p.batches[:i], p.batches[i+1:]...)
	return b
}

// Modules lists the owners of pending batches, one entry per batch.
func (p *Pool) Modules() []string {
	out := make([]string, len(p.batches))
	for i, b := range p.batches {
		out[i] = b.Module.String()
	}
	return out
}

func pick[T any](r *rand.Rand, s []T) T {
	return s[r.IntN(len(s))]
}

// Backpressure is a counter raised by collaborators to hold questions back,
// for example while the presentation surface is hidden. Safe for concurrent use.
type Backpressure struct {
	n atomic.Int64
}

// Suppress raises the counter.
func (b *Backpressure) Suppress() {
	b.n.Add(1)
}

// Release lowers the counter. It never goes below zero; an unmatched Release
// returns false.
func (b *Backpressure) Release() bool {
	for {
		cur := b.n.Load()
		if cur <= 0 {
			return false
		}
		if b.n.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Suppressed reports whether the counter is positive.
func (b *Backpressure) Suppressed() bool {
	return b.n.Load() > 0
}

// Level is the current counter value.
func (b *Backpressure) Level() int {
	return int(b.n.Load())
}
