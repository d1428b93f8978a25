package combat

// ResourceCost names a limited resource an action consumes, such as a spell slot.
type ResourceCost struct {
	Name   string
	Amount int
}

// ResourceChecker answers whether a participant may spend a resource. Bookkeeping of
// the resource itself belongs to the implementation.
type ResourceChecker interface {
	Spend(participantID string, cost ResourceCost) (bool, error)
}

// ResourceCheckerFunc adapts a function to ResourceChecker.
type ResourceCheckerFunc func(participantID string, cost ResourceCost) (bool, error)

// Spend calls f.
func (f ResourceCheckerFunc) Spend(participantID string, cost ResourceCost) (bool, error) {
	return f(participantID, cost)
}

// AllowAllResources approves every request.
var AllowAllResources ResourceChecker = ResourceCheckerFunc(func(string, ResourceCost) (bool, error) {
	return true, nil
})
