package obligation

import (
	"testing"
	"time"
)

func TestWithDueRoundTrip(t *testing.T) {
	due := time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)
	o := Obligation{Name: "Liasse fiscale"}.WithDue(due)

	got, ok := o.Due()
	if !ok {
		t.Fatal("expected due date")
	}
	if !got.Equal(due) {
		t.Fatalf("due = %v, want %v", got, due)
	}
	if _, ok := (Obligation{}).Due(); ok {
		t.Fatal("expected undated obligation")
	}
}

func TestSortByDueDate(t *testing.T) {
	at := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	list := []Obligation{
		Obligation{Name: "c"}.WithDue(at(time.June, 30)),
		{Name: "undated"},
		Obligation{Name: "a"}.WithDue(at(time.March, 15)),
		Obligation{Name: "b"}.WithDue(at(time.March, 15)),
	}

	sorted := SortByDueDate(list)
	want := []string{"a", "b", "c", "undated"}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Fatalf("sorted[%d] = %q, want %q", i, sorted[i].Name, name)
		}
	}
	if list[0].Name != "c" {
		t.Fatal("expected input slice to be left untouched")
	}
}
