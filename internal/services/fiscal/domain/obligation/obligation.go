// Package obligation defines the engine output: dated regulatory filings and
// payments for one entity and fiscal year.
package obligation

import (
	"sort"
	"time"
)

// Obligation is one filing or payment instance.
type Obligation struct {
	Name          string `json:"name"`
	Category      string `json:"category,omitempty"`
	FormReference string `json:"formReference,omitempty"`
	// DueDate is the deadline in Unix milliseconds, nil when no date could be
	// computed.
	DueDate *int64 `json:"dueDate,omitempty"`
}

// Due returns the due date as a UTC time.
func (o Obligation) Due() (time.Time, bool) {
	if o.DueDate == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*o.DueDate).UTC(), true
}

// WithDue returns a copy of o due at t.
func (o Obligation) WithDue(t time.Time) Obligation {
	ms := t.UTC().UnixMilli()
	o.DueDate = &ms
	return o
}

// SortByDueDate returns a chronological copy of list. Undated obligations
// come last; ties keep their generation order.
func SortByDueDate(list []Obligation) []Obligation {
	out := make([]Obligation, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}
