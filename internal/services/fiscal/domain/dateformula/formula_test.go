package dateformula

import (
	"testing"
	"time"
)

func TestFixedMonthRollover(t *testing.T) {
	basis := Basis{FiscalYear: 2024, Closing: YearEnd}

	tests := []struct {
		name   string
		params Params
		want   time.Time
	}{
		{"plain", Params{Jour: intPtr(15), Mois: intPtr(5)}, day(2024, time.May, 15)},
		{"next year", Params{Jour: intPtr(15), Mois: intPtr(5), AnneeOffset: 1}, day(2025, time.May, 15)},
		{"month 13", Params{Jour: intPtr(15), Mois: intPtr(13)}, day(2025, time.January, 15)},
		{"offset into next year", Params{Jour: intPtr(24), Mois: intPtr(12), MoisOffset: 1}, day(2025, time.January, 24)},
		{"offset into previous year", Params{Jour: intPtr(10), Mois: intPtr(1), MoisOffset: -2}, day(2023, time.November, 10)},
		{"day clamped", Params{Jour: intPtr(31), Mois: intPtr(4)}, day(2024, time.April, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustCalculate(t, Formula{Type: TypeFixed, Params: tt.params}, basis)
			if !got.Equal(tt.want) {
				t.Fatalf("fixed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFixedMissingParams(t *testing.T) {
	basis := Basis{FiscalYear: 2024}
	if _, ok := Calculate(Formula{Type: TypeFixed, Params: Params{Mois: intPtr(5)}}, basis); ok {
		t.Fatal("expected no date without jour")
	}
	if _, ok := Calculate(Formula{Type: TypeFixed, Params: Params{Jour: intPtr(5)}}, basis); ok {
		t.Fatal("expected no date without mois")
	}
}

func TestRelativeToCloture(t *testing.T) {
	f := Formula{Type: TypeRelativeToCloture, Params: Params{MoisOffset: 3, JoursOffset: 15}}
	got := mustCalculate(t, f, Basis{FiscalYear: 2024, Closing: ParseClosing("30/06")})
	if want := day(2024, time.October, 15); !got.Equal(want) {
		t.Fatalf("relative = %v, want %v", got, want)
	}

	f = Formula{Type: TypeRelativeToCloture, Params: Params{MoisOffset: 4}}
	got = mustCalculate(t, f, Basis{FiscalYear: 2024, Closing: ParseClosing("31/10")})
	if want := day(2025, time.February, 28); !got.Equal(want) {
		t.Fatalf("relative clamp = %v, want %v", got, want)
	}
}

func TestClotureConditional(t *testing.T) {
	f := Formula{Type: TypeClotureConditional, Params: Params{
		DateA: &Params{Jour: intPtr(15), Mois: intPtr(5), AnneeOffset: 1},
		DateB: &Params{Type: TypeRelativeToCloture, MoisOffset: 3, JoursOffset: 15},
	}}

	got := mustCalculate(t, f, Basis{FiscalYear: 2024, Closing: ParseClosing("31/12")})
	if want := day(2025, time.May, 15); !got.Equal(want) {
		t.Fatalf("year-end closing = %v, want %v", got, want)
	}

	got = mustCalculate(t, f, Basis{FiscalYear: 2024, Closing: ParseClosing("30/06")})
	if want := day(2024, time.October, 15); !got.Equal(want) {
		t.Fatalf("june closing = %v, want %v", got, want)
	}

	fixedB := Formula{Type: TypeClotureConditional, Params: Params{
		DateA: &Params{Jour: intPtr(15), Mois: intPtr(5), AnneeOffset: 1},
		DateB: &Params{Jour: intPtr(1), Mois: intPtr(9)},
	}}
	got = mustCalculate(t, fixedB, Basis{FiscalYear: 2024, Closing: ParseClosing("30/06")})
	if want := day(2024, time.September, 1); !got.Equal(want) {
		t.Fatalf("fixed dateB = %v, want %v", got, want)
	}
}

func TestClotureConditionalMissingBranch(t *testing.T) {
	f := Formula{Type: TypeClotureConditional, Params: Params{
		DateA: &Params{Jour: intPtr(15), Mois: intPtr(5)},
	}}
	if _, ok := Calculate(f, Basis{FiscalYear: 2024, Closing: ParseClosing("30/06")}); ok {
		t.Fatal("expected no date without dateB")
	}
	nested := Formula{Type: TypeClotureConditional, Params: Params{
		DateA: &Params{Type: TypeClotureConditional},
	}}
	if _, ok := Calculate(nested, Basis{FiscalYear: 2024}); ok {
		t.Fatal("expected no date for nested conditional branch")
	}
}

func TestEndOfMonthPlusOffset(t *testing.T) {
	f := Formula{Type: TypeEndOfMonthPlusOffset, Params: Params{Mois: intPtr(2), OffsetJours: intPtr(0)}}
	got := mustCalculate(t, f, Basis{FiscalYear: 2024, VATDueDay: 19})
	if want := day(2024, time.February, 29); !got.Equal(want) {
		t.Fatalf("leap february = %v, want %v", got, want)
	}

	got = mustCalculate(t, f, Basis{FiscalYear: 2023})
	if want := day(2023, time.February, 28); !got.Equal(want) {
		t.Fatalf("february 2023 = %v, want %v", got, want)
	}

	fallback := Formula{Type: TypeEndOfMonthPlusOffset, Params: Params{Mois: intPtr(1)}}
	got = mustCalculate(t, fallback, Basis{FiscalYear: 2024, VATDueDay: 19})
	if want := day(2024, time.February, 19); !got.Equal(want) {
		t.Fatalf("vat due-day fallback = %v, want %v", got, want)
	}

	december := Formula{Type: TypeEndOfMonthPlusOffset, Params: Params{Mois: intPtr(12), OffsetJours: intPtr(24)}}
	got = mustCalculate(t, december, Basis{FiscalYear: 2024})
	if want := day(2025, time.January, 24); !got.Equal(want) {
		t.Fatalf("december offset = %v, want %v", got, want)
	}

	if _, ok := Calculate(Formula{Type: TypeEndOfMonthPlusOffset}, Basis{FiscalYear: 2024}); ok {
		t.Fatal("expected no date without mois")
	}
}

func TestEndOfQuarterPlusOffset(t *testing.T) {
	f := Formula{Type: TypeEndOfQuarterPlusOffset, Params: Params{Trimestre: intPtr(1), OffsetJours: intPtr(24)}}
	got := mustCalculate(t, f, Basis{FiscalYear: 2024})
	if want := day(2024, time.April, 24); !got.Equal(want) {
		t.Fatalf("q1 = %v, want %v", got, want)
	}

	f = Formula{Type: TypeEndOfQuarterPlusOffset, Params: Params{Trimestre: intPtr(4)}}
	got = mustCalculate(t, f, Basis{FiscalYear: 2024, VATDueDay: 21})
	if want := day(2025, time.January, 21); !got.Equal(want) {
		t.Fatalf("q4 = %v, want %v", got, want)
	}

	if _, ok := Calculate(Formula{Type: TypeEndOfQuarterPlusOffset, Params: Params{Trimestre: intPtr(5)}}, Basis{FiscalYear: 2024}); ok {
		t.Fatal("expected no date for quarter 5")
	}
}

func TestRelativeToAGO(t *testing.T) {
	f := Formula{Type: TypeRelativeToAGO}
	tests := []struct {
		closing string
		want    time.Time
	}{
		{"31/12", day(2024, time.June, 30)},
		{"30/06", day(2024, time.December, 30)},
		{"31/03", day(2024, time.September, 30)},
		{"31/08", day(2024, time.February, 29)},
	}
	for _, tt := range tests {
		got := mustCalculate(t, f, Basis{FiscalYear: 2024, Closing: ParseClosing(tt.closing)})
		if !got.Equal(tt.want) {
			t.Fatalf("meeting for %s = %v, want %v", tt.closing, got, tt.want)
		}
	}

	withOffset := Formula{Type: TypeRelativeToAGO, Params: Params{MoisOffset: 1}}
	got := mustCalculate(t, withOffset, Basis{FiscalYear: 2024, Closing: YearEnd})
	if want := day(2024, time.July, 30); !got.Equal(want) {
		t.Fatalf("meeting + 1 month = %v, want %v", got, want)
	}
}

func TestAcompteCloturePeriod(t *testing.T) {
	tests := []struct {
		closing string
		want    [4]time.Time
	}{
		{"31/12", [4]time.Time{
			day(2024, time.March, 15), day(2024, time.June, 15), day(2024, time.September, 15), day(2024, time.December, 15),
		}},
		{"31/03", [4]time.Time{
			day(2023, time.June, 15), day(2023, time.September, 15), day(2023, time.December, 15), day(2024, time.March, 15),
		}},
		{"30/06", [4]time.Time{
			day(2023, time.September, 15), day(2023, time.December, 15), day(2024, time.March, 15), day(2024, time.June, 15),
		}},
		{"30/09", [4]time.Time{
			day(2023, time.December, 15), day(2024, time.March, 15), day(2024, time.June, 15), day(2024, time.September, 15),
		}},
	}
	for _, tt := range tests {
		basis := Basis{FiscalYear: 2024, Closing: ParseClosing(tt.closing)}
		for i, want := range tt.want {
			f := Formula{Type: TypeAcompteCloturePeriod, Params: Params{AcompteNum: i + 1}}
			got := mustCalculate(t, f, basis)
			if !got.Equal(want) {
				t.Fatalf("closing %s acompte %d = %v, want %v", tt.closing, i+1, got, want)
			}
		}
	}
}

func TestAcompteWindowBoundaries(t *testing.T) {
	tests := []struct {
		closing string
		want    int
	}{
		{"19/02", 3},
		{"20/02", 0},
		{"19/05", 0},
		{"20/05", 1},
		{"19/08", 1},
		{"20/08", 2},
		{"19/11", 2},
		{"20/11", 3},
		{"15/01", 3},
	}
	for _, tt := range tests {
		if got := closingWindow(ParseClosing(tt.closing)); got != tt.want {
			t.Fatalf("window for %s = %d, want %d", tt.closing, got, tt.want)
		}
	}
}

func TestAcompteOutOfRange(t *testing.T) {
	for _, num := range []int{0, 5, -1} {
		f := Formula{Type: TypeAcompteCloturePeriod, Params: Params{AcompteNum: num}}
		if _, ok := Calculate(f, Basis{FiscalYear: 2024}); ok {
			t.Fatalf("acompte %d: expected no date", num)
		}
	}
}

func TestUnknownTypeYieldsNoDate(t *testing.T) {
	if _, ok := Calculate(Formula{Type: "lunar_cycle"}, Basis{FiscalYear: 2024}); ok {
		t.Fatal("expected no date for unknown formula type")
	}
}

func TestInstancePeriodOverridesFormulaMonth(t *testing.T) {
	f := Formula{Type: TypeFixed, Params: Params{Jour: intPtr(19), Mois: intPtr(1), MoisOffset: 1}}
	got := mustCalculate(t, f, Basis{FiscalYear: 2024, Month: 12})
	if want := day(2025, time.January, 19); !got.Equal(want) {
		t.Fatalf("month instance = %v, want %v", got, want)
	}

	got = mustCalculate(t, f, Basis{FiscalYear: 2024, Quarter: 2})
	if want := day(2024, time.July, 19); !got.Equal(want) {
		t.Fatalf("quarter instance = %v, want %v", got, want)
	}

	q := Formula{Type: TypeEndOfQuarterPlusOffset, Params: Params{Trimestre: intPtr(1), OffsetJours: intPtr(0)}}
	got = mustCalculate(t, q, Basis{FiscalYear: 2024, Month: 8})
	if want := day(2024, time.September, 30); !got.Equal(want) {
		t.Fatalf("quarter from month = %v, want %v", got, want)
	}
}

func TestZeroClosingDefaultsToYearEnd(t *testing.T) {
	f := Formula{Type: TypeRelativeToCloture}
	got := mustCalculate(t, f, Basis{FiscalYear: 2024})
	if want := day(2024, time.December, 31); !got.Equal(want) {
		t.Fatalf("zero closing = %v, want %v", got, want)
	}
}

func TestTypeValid(t *testing.T) {
	if !TypeRelativeToAGO.Valid() {
		t.Fatal("expected relative_to_ago to be valid")
	}
	if Type("next_business_day").Valid() {
		t.Fatal("expected unknown type to be invalid")
	}
}

func TestOffsetsOutOfRangeYieldNoDate(t *testing.T) {
	basis := Basis{FiscalYear: 2024, Closing: YearEnd}
	huge := int(^uint(0) >> 1)

	tests := []struct {
		name    string
		formula Formula
	}{
		{"fixed month offset", Formula{Type: TypeFixed, Params: Params{Jour: intPtr(15), Mois: intPtr(1), MoisOffset: huge}}},
		{"fixed month", Formula{Type: TypeFixed, Params: Params{Jour: intPtr(15), Mois: intPtr(-huge)}}},
		{"cloture month offset", Formula{Type: TypeRelativeToCloture, Params: Params{MoisOffset: MaxMonths + 1}}},
		{"ago day offset", Formula{Type: TypeRelativeToAGO, Params: Params{JoursOffset: -huge}}},
		{"branch", Formula{Type: TypeClotureConditional, Params: Params{DateA: &Params{Jour: intPtr(1), Mois: intPtr(1), AnneeOffset: huge}}}},
	}
	for _, tt := range tests {
		if got, ok := Calculate(tt.formula, basis); ok {
			t.Fatalf("%s: got %v, want no date", tt.name, got)
		}
	}
}

func TestOffsetAtBoundResolves(t *testing.T) {
	basis := Basis{FiscalYear: 2024, Closing: YearEnd}
	f := Formula{Type: TypeFixed, Params: Params{Jour: intPtr(15), Mois: intPtr(1), MoisOffset: MaxMonths}}
	if got := mustCalculate(t, f, basis); !got.Equal(day(2124, time.January, 15)) {
		t.Fatalf("fixed = %v, want 2124-01-15", got)
	}
}
