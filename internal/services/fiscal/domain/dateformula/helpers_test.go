package dateformula

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func mustCalculate(t *testing.T, f Formula, basis Basis) time.Time {
	t.Helper()
	got, ok := Calculate(f, basis)
	if !ok {
		t.Fatalf("calculate %s: expected a date", f.Type)
	}
	return got
}
