// Package ordering plans changes to the integer order field shared by sibling
// entities (units of a course, lessons of a unit). Plans are pure; callers apply
// them inside a single store transaction.
package ordering

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrForeignID       = errors.New("id does not belong to the parent")
	ErrDuplicateID     = errors.New("id listed more than once")
	ErrDuplicateOrder  = errors.New("order value would be used by more than one sibling")
	ErrInvalidOrder    = errors.New("order must be at least 1")
	ErrEmptyReordering = errors.New("no order entries supplied")
)

// Sibling is the minimal view of an ordered entity.
type Sibling struct {
	ID    uint
	Order int
}

// Update assigns Order to the entity with ID.
type Update struct {
	ID    uint `json:"id" validate:"required"`
	Order int  `json:"order" validate:"min=1"`
}

// InsertPlan describes how to insert a new sibling.
type InsertPlan struct {
	// Order is the slot the new entity takes.
	Order int
	// ShiftFrom is the lowest order value that must be incremented by one before
	// the insert. Zero when nothing moves.
	ShiftFrom int
	// Shifted lists the siblings that move, with their new order.
	Shifted []Update
}

// NeedsShift reports whether any sibling has to move.
func (p InsertPlan) NeedsShift() bool {
	return len(p.Shifted) > 0
}

// PlanInsert computes where a new sibling goes. A nil target appends after the
// current maximum. When target is already taken, every sibling at or above it
// moves up by exactly one; gaps elsewhere are left alone.
func PlanInsert(siblings []Sibling, target *int) (InsertPlan, error) {
	if target == nil {
		return InsertPlan{Order: NextOrder(siblings)}, nil
	}
	if *target < 1 {
		return InsertPlan{}, ErrInvalidOrder
	}

	occupied := false
	for _, s := range siblings {
		if s.Order == *target {
			occupied = true
			break
		}
	}

	plan := InsertPlan{Order: *target}
	if !occupied {
		return plan, nil
	}

	plan.ShiftFrom = *target
	for _, s := range siblings {
		if s.Order >= *target {
			plan.Shifted = append(plan.Shifted, Update{ID: s.ID, Order: s.Order + 1})
		}
	}
	// Apply from the top down so a row-by-row apply never collides.
	sort.Slice(plan.Shifted, func(i, j int) bool {
		return plan.Shifted[i].Order > plan.Shifted[j].Order
	})
	return plan, nil
}

// NextOrder is one past the highest existing order, or 1 for an empty scope.
func NextOrder(siblings []Sibling) int {
	max := 0
	for _, s := range siblings {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + 1
}

// PlanReorder validates a caller supplied reassignment against the current
// siblings. Every id must belong to the scope, appear once, and the resulting set
// of order values (requested plus untouched siblings) must stay unique. Nothing
// is returned unless the whole request is acceptable.
func PlanReorder(siblings []Sibling, requested []Update) ([]Update, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyReordering
	}

	current := make(map[uint]int, len(siblings))
	for _, s := range siblings {
		current[s.ID] = s.Order
	}

	final := make(map[uint]int, len(siblings))
	for id, order := range current {
		final[id] = order
	}

	seen := make(map[uint]bool, len(requested))
	for _, u := range requested {
		if _, ok := current[u.ID]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrForeignID, u.ID)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, u.ID)
		}
		if u.Order < 1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, u.ID)
		}
		seen[u.ID] = true
		final[u.ID] = u.Order
	}

	used := make(map[int]uint, len(final))
	for id, order := range final {
		if other, ok := used[order]; ok {
			return nil, fmt.Errorf("%w: %d (ids %d and %d)", ErrDuplicateOrder, order, min(id, other), max(id, other))
		}
		used[order] = id
	}

	updates := make([]Update, 0, len(requested))
	for _, u := range requested {
		if current[u.ID] != u.Order {
			updates = append(updates, u)
		}
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].ID < updates[j].ID })
	return updates, nil
}

// Apply returns siblings with the updates applied, sorted by order then id.
func Apply(siblings []Sibling, updates []Update) []Sibling {
	byID := make(map[uint]int, len(updates))
	for _, u := range updates {
		byID[u.ID] = u.Order
	}
	out := make([]Sibling, len(siblings))
	for i, s := range siblings {
		if order, ok := byID[s.ID]; ok {
			s.Order = order
		}
		out[i] = s
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].ID < out[j].ID
		}
		return out[i].Order < out[j].Order
	})
	return out
}
