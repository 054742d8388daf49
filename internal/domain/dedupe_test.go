package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func dup(id string, created time.Time) Quote {
	q := sampleQuote()
	q.ID = id
	q.CreatedAt = created

	return q
}

func ids(quotes []Quote) []string {
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.ID)
	}

	return out
}

func TestPlanDedupe_EmptyAndSingle(t *testing.T) {
	assert.False(t, PlanDedupe(nil).HasDuplicates())
	assert.Empty(t, PlanDedupe([]Quote{}).Retained)

	plan := PlanDedupe([]Quote{dup("1", day(1))})
	assert.False(t, plan.HasDuplicates())
	assert.Equal(t, []string{"1"}, ids(plan.Retained))
}

func TestPlanDedupe_LatestWins(t *testing.T) {
	plan := PlanDedupe([]Quote{dup("1", day(1)), dup("2", day(20))})

	assert.Equal(t, []string{"2"}, ids(plan.Retained))
	assert.Equal(t, []string{"1"}, plan.MarkedIDs())
}

func TestPlanDedupe_ThreeWayGroup(t *testing.T) {
	plan := PlanDedupe([]Quote{dup("a", day(5)), dup("b", day(9)), dup("c", day(2))})

	assert.Equal(t, []string{"b"}, ids(plan.Retained))
	assert.ElementsMatch(t, []string{"a", "c"}, plan.MarkedIDs())
}

func TestPlanDedupe_IndependentGroups(t *testing.T) {
	other := func(id string, created time.Time) Quote {
		q := dup(id, created)
		q.InvestorName = "Beta Capital"
		return q
	}

	plan := PlanDedupe([]Quote{
		dup("a1", day(1)), dup("a2", day(2)),
		other("b1", day(1)), other("b2", day(3)), other("b3", day(2)),
	})

	assert.ElementsMatch(t, []string{"a2", "b2"}, ids(plan.Retained))
	assert.ElementsMatch(t, []string{"a1", "b1", "b3"}, plan.MarkedIDs())
}

func TestPlanDedupe_TieIsDeterministic(t *testing.T) {
	input := []Quote{dup("x", day(3)), dup("y", day(3))}

	first := PlanDedupe(input)
	for range 20 {
		again := PlanDedupe(input)
		require.Empty(t, cmp.Diff(first, again))
	}

	assert.Equal(t, []string{"x"}, ids(first.Retained))
	assert.Equal(t, []string{"y"}, first.MarkedIDs())
}

func TestPlanDedupe_DoesNotMutateInput(t *testing.T) {
	input := []Quote{dup("1", day(1)), dup("2", day(2))}
	before := append([]Quote(nil), input...)

	_ = PlanDedupe(input)

	assert.Empty(t, cmp.Diff(before, input))
}

func TestPlanDedupe_SameRecordListedTwice(t *testing.T) {
	plan := PlanDedupe([]Quote{dup("1", day(1)), dup("1", day(1))})

	assert.False(t, plan.HasDuplicates(), "a record must never be marked against itself")
}

func TestPlanDedupe_UnpersistedDuplicateIsMarkedWithoutID(t *testing.T) {
	plan := PlanDedupe([]Quote{dup("", day(1)), dup("2", day(2))})

	require.Len(t, plan.Marked, 1)
	assert.False(t, plan.Marked[0].Persisted())
	assert.Empty(t, plan.MarkedIDs())
}

func TestWithoutIDs_PreservesOrder(t *testing.T) {
	input := []Quote{dup("3", day(3)), dup("1", day(1)), dup("", day(1)), dup("2", day(2))}

	out := WithoutIDs(input, map[string]struct{}{"1": {}})

	assert.Equal(t, []string{"3", "", "2"}, ids(out))
	assert.Len(t, input, 4)
}
