package domain

import (
	"slices"
)

// DedupePlan is the outcome of the synchronous half of a deduplication
// pass: which quotes survive and which are redundant.
type DedupePlan struct {
	// Retained holds one quote per duplicate key, newest first.
	Retained []Quote

	// Marked holds the older members of each duplicate group, in the order
	// they were encountered. Each persisted ID appears at most once.
	Marked []Quote
}

// HasDuplicates reports whether anything was marked.
func (p DedupePlan) HasDuplicates() bool {
	return len(p.Marked) > 0
}

// MarkedIDs returns the IDs of the persisted marked quotes.
func (p DedupePlan) MarkedIDs() []string {
	ids := make([]string, 0, len(p.Marked))
	for _, q := range p.Marked {
		if q.Persisted() {
			ids = append(ids, q.ID)
		}
	}

	return ids
}

// PlanDedupe groups quotes by DuplicateKey and keeps the most recently
// created member of every group. Quotes with equal CreatedAt keep their
// input order, so the first one listed wins the tie.
//
// An ID that belongs to a retained quote is never marked: the same record
// listed twice must not delete its own survivor.
func PlanDedupe(quotes []Quote) DedupePlan {
	if len(quotes) < 2 {
		return DedupePlan{Retained: slices.Clone(quotes)}
	}

	ordered := slices.Clone(quotes)
	slices.SortStableFunc(ordered, func(a, b Quote) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var (
		plan     DedupePlan
		seen     = make(map[DuplicateKey]struct{}, len(ordered))
		retained = make(map[string]struct{}, len(ordered))
		dupes    []Quote
	)

	for _, q := range ordered {
		key := q.Key()
		if _, ok := seen[key]; ok {
			dupes = append(dupes, q)
			continue
		}

		seen[key] = struct{}{}
		plan.Retained = append(plan.Retained, q)
		if q.Persisted() {
			retained[q.ID] = struct{}{}
		}
	}

	marked := make(map[string]struct{}, len(dupes))
	for _, q := range dupes {
		if q.Persisted() {
			if _, ok := retained[q.ID]; ok {
				continue
			}
			if _, ok := marked[q.ID]; ok {
				continue
			}
			marked[q.ID] = struct{}{}
		}
		plan.Marked = append(plan.Marked, q)
	}

	return plan
}

// WithoutIDs returns a copy of quotes minus every quote whose ID is in
// removed, preserving order. The input slice is not modified.
func WithoutIDs(quotes []Quote, removed map[string]struct{}) []Quote {
	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Persisted() {
			if _, gone := removed[q.ID]; gone {
				continue
			}
		}
		out = append(out, q)
	}

	return out
}
