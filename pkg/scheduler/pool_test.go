package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/souvenir/pkg/domain"
)

func TestPool(t *testing.T) {
	var p Pool
	p.Add(domain.Batch{Module: domain.Module{ID: "1", Type: "Wires"}, Snapshot: 0})
	p.Add(domain.Batch{Module: domain.Module{ID: "2", Type: "Keypad"}, Snapshot: 2})
	p.Add(domain.Batch{Module: domain.Module{ID: "3", Type: "Maze"}, Snapshot: 1})

	assert.Equal(t, []int{0, 2}, p.Eligible(2, false))
	assert.Equal(t, []int{0, 1, 2}, p.Eligible(2, true))
	assert.Empty(t, p.Eligible(0, false))

	b := p.Take(1)
	assert.Equal(t, "2", b.Module.ID)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"Wires", "Maze"}, p.Modules())
}
