package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func uniqueOrders(t *testing.T, siblings []Sibling) {
	t.Helper()
	seen := make(map[int]uint)
	for _, s := range siblings {
		if other, ok := seen[s.Order]; ok {
			t.Fatalf("order %d used by %d and %d", s.Order, other, s.ID)
		}
		seen[s.Order] = s.ID
	}
}

func TestPlanInsert(t *testing.T) {
	siblings := []Sibling{{ID: 1, Order: 1}, {ID: 2, Order: 2}, {ID: 3, Order: 3}, {ID: 4, Order: 7}}

	tests := []struct {
		name        string
		target      *int
		wantOrder   int
		wantShifted []Update
	}{
		{name: "append when no target", target: nil, wantOrder: 8},
		{name: "free slot", target: intPtr(5), wantOrder: 5},
		{
			name:        "occupied slot shifts everything at or above",
			target:      intPtr(2),
			wantOrder:   2,
			wantShifted: []Update{{ID: 4, Order: 8}, {ID: 3, Order: 4}, {ID: 2, Order: 3}},
		},
		{
			name:        "occupied top slot",
			target:      intPtr(7),
			wantOrder:   7,
			wantShifted: []Update{{ID: 4, Order: 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanInsert(siblings, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, plan.Order)
			assert.Equal(t, tt.wantShifted, plan.Shifted)
		})
	}
}

func TestPlanInsert_ShiftProperty(t *testing.T) {
	siblings := []Sibling{{ID: 10, Order: 1}, {ID: 11, Order: 2}, {ID: 12, Order: 4}, {ID: 13, Order: 5}}
	k := 4

	plan, err := PlanInsert(siblings, &k)
	require.NoError(t, err)
	require.True(t, plan.NeedsShift())

	after := Apply(siblings, plan.Shifted)
	after = append(after, Sibling{ID: 99, Order: plan.Order})
	uniqueOrders(t, after)
	assert.Len(t, after, len(siblings)+1)

	atK := 0
	for _, s := range after {
		if s.Order == k {
			atK++
			assert.Equal(t, uint(99), s.ID)
		}
	}
	assert.Equal(t, 1, atK)

	before := map[uint]int{}
	for _, s := range siblings {
		before[s.ID] = s.Order
	}
	for _, s := range after {
		old, ok := before[s.ID]
		if !ok {
			continue
		}
		if old >= k {
			assert.Equal(t, old+1, s.Order, "sibling %d", s.ID)
		} else {
			assert.Equal(t, old, s.Order, "sibling %d", s.ID)
		}
	}
}

func TestPlanInsert_NonPositive(t *testing.T) {
	_, err := PlanInsert(nil, intPtr(-1))
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = PlanInsert(nil, intPtr(0))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestPlanReorder_ZeroIsNotASlot(t *testing.T) {
	siblings := []Sibling{{ID: 1, Order: 1}, {ID: 2, Order: 2}}

	_, err := PlanReorder(siblings, []Update{{ID: 1, Order: 0}})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	// every slot a reorder accepts is one an insert can target
	updates, err := PlanReorder(siblings, []Update{{ID: 1, Order: 3}})
	require.NoError(t, err)
	plan, err := PlanInsert(Apply(siblings, updates), intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Order)
	assert.False(t, plan.NeedsShift())
}

func TestNextOrder(t *testing.T) {
	assert.Equal(t, 1, NextOrder(nil))
	assert.Equal(t, 10, NextOrder([]Sibling{{ID: 1, Order: 9}, {ID: 2, Order: 3}}))
}

func TestPlanReorder(t *testing.T) {
	siblings := []Sibling{{ID: 1, Order: 1}, {ID: 2, Order: 2}, {ID: 3, Order: 3}}

	t.Run("swap", func(t *testing.T) {
		updates, err := PlanReorder(siblings, []Update{{ID: 1, Order: 2}, {ID: 2, Order: 1}})
		require.NoError(t, err)
		assert.Equal(t, []Update{{ID: 1, Order: 2}, {ID: 2, Order: 1}}, updates)
		uniqueOrders(t, Apply(siblings, updates))
	})

	t.Run("unchanged entries are dropped", func(t *testing.T) {
		updates, err := PlanReorder(siblings, []Update{{ID: 3, Order: 3}, {ID: 2, Order: 10}})
		require.NoError(t, err)
		assert.Equal(t, []Update{{ID: 2, Order: 10}}, updates)
	})

	t.Run("gaps are allowed", func(t *testing.T) {
		updates, err := PlanReorder(siblings, []Update{{ID: 1, Order: 10}, {ID: 2, Order: 20}, {ID: 3, Order: 30}})
		require.NoError(t, err)
		uniqueOrders(t, Apply(siblings, updates))
	})

	t.Run("foreign id", func(t *testing.T) {
		_, err := PlanReorder(siblings, []Update{{ID: 1, Order: 2}, {ID: 42, Order: 1}})
		assert.ErrorIs(t, err, ErrForeignID)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := PlanReorder(siblings, []Update{{ID: 1, Order: 5}, {ID: 1, Order: 6}})
		assert.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("collision with untouched sibling", func(t *testing.T) {
		_, err := PlanReorder(siblings, []Update{{ID: 1, Order: 3}})
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	})

	t.Run("collision inside request", func(t *testing.T) {
		_, err := PlanReorder(siblings, []Update{{ID: 1, Order: 9}, {ID: 2, Order: 9}})
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := PlanReorder(siblings, nil)
		assert.ErrorIs(t, err, ErrEmptyReordering)
	})
}
