package scenario

import (
	"sync"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// ResourcePool counts limited resources per participant and answers the encounter's
// resource checks. A participant with no entry for a resource cannot spend it.
// All methods are safe for concurrent use.
type ResourcePool struct {
	mu        sync.Mutex
	remaining map[string]map[string]int
}

// NewResourcePool creates an empty pool.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{remaining: make(map[string]map[string]int)}
}

// Set replaces the remaining count of a participant's resource.
func (p *ResourcePool) Set(participantID, name string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.remaining[participantID] == nil {
		p.remaining[participantID] = make(map[string]int)
	}
	p.remaining[participantID][name] = n
}

// Remaining returns what is left of a participant's resource.
func (p *ResourcePool) Remaining(participantID, name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining[participantID][name]
}

// Spend deducts cost when enough remains.
//
// Postcondition: Returns true and deducts iff at least cost.Amount remained.
func (p *ResourcePool) Spend(participantID string, cost combat.ResourceCost) (bool, error) {
	if cost.Amount < 1 {
		return false, rules.Errorf(rules.ErrValidation, "resource %q amount must be >= 1, got %d", cost.Name, cost.Amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	left := p.remaining[participantID][cost.Name]
	if left < cost.Amount {
		return false, nil
	}
	p.remaining[participantID][cost.Name] = left - cost.Amount
	return true, nil
}
