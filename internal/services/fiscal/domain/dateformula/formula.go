package dateformula

import (
	"fmt"
	"time"
)

// Type identifies a date formula kind.
type Type string

const (
	TypeFixed                  Type = "fixed"
	TypeRelativeToCloture      Type = "relative_to_cloture"
	TypeClotureConditional     Type = "cloture_conditional"
	TypeEndOfMonthPlusOffset   Type = "end_of_month_plus_offset"
	TypeEndOfQuarterPlusOffset Type = "end_of_quarter_plus_offset"
	TypeRelativeToAGO          Type = "relative_to_ago"
	TypeAcompteCloturePeriod   Type = "is_acompte_cloture_period"
)

// Valid reports whether t is a known formula type.
func (t Type) Valid() bool {
	switch t {
	case TypeFixed, TypeRelativeToCloture, TypeClotureConditional, TypeEndOfMonthPlusOffset,
		TypeEndOfQuarterPlusOffset, TypeRelativeToAGO, TypeAcompteCloturePeriod:
		return true
	}
	return false
}

// meetingDelay is the number of months between closing and the general
// meeting approving the accounts.
const meetingDelay = 6

// Formula declares how a due date is computed.
type Formula struct {
	Type   Type   `json:"type"`
	Params Params `json:"params"`
}

// Params holds the parameters of every formula type. Each type reads only
// its own subset.
type Params struct {
	// Type selects the kind of a cloture_conditional branch. Empty means fixed.
	Type Type `json:"type,omitempty"`

	Jour        *int `json:"jour,omitempty"`
	Mois        *int `json:"mois,omitempty"`
	MoisOffset  int  `json:"moisOffset,omitempty"`
	AnneeOffset int  `json:"anneeOffset,omitempty"`
	JoursOffset int  `json:"joursOffset,omitempty"`
	OffsetJours *int `json:"offsetJours,omitempty"`
	Trimestre   *int `json:"trimestre,omitempty"`
	AcompteNum  int  `json:"acompteNum,omitempty"`

	DateA *Params `json:"dateA,omitempty"`
	DateB *Params `json:"dateB,omitempty"`
}

// Basis is the context a formula is resolved against.
type Basis struct {
	FiscalYear int
	Closing    Closing
	// VATDueDay is the entity VAT due-day, used when a month-end formula has
	// no explicit offset.
	VATDueDay int
	// Month and Quarter, when non-zero, are the instance period of a
	// repeated template and replace the formula's own month or quarter.
	Month   int
	Quarter int
}

// Parameter bounds. Values past them cannot name a meaningful deadline.
const (
	MaxMonths = 1200
	MaxYears  = 100
	MaxDays   = 36600
)

// Validate reports the first parameter outside its bound.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value int
		limit int
	}{
		{"mois_offset", p.MoisOffset, MaxMonths},
		{"annee_offset", p.AnneeOffset, MaxYears},
		{"jours_offset", p.JoursOffset, MaxDays},
		{"acompte", p.AcompteNum, MaxMonths},
		{"jour", deref(p.Jour), MaxDays},
		{"mois", deref(p.Mois), MaxMonths},
		{"offset_jours", deref(p.OffsetJours), MaxDays},
		{"trimestre", deref(p.Trimestre), MaxMonths},
	}
	for _, c := range checks {
		if c.value > c.limit || c.value < -c.limit {
			return fmt.Errorf("%s %d out of range [-%d, %d]", c.name, c.value, c.limit, c.limit)
		}
	}
	for _, branch := range []*Params{p.DateA, p.DateB} {
		if branch == nil {
			continue
		}
		if err := branch.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Calculate resolves the formula to a due date. It reports false when no
// date can be computed, including parameters outside the Max bounds.
func Calculate(f Formula, basis Basis) (time.Time, bool) {
	if basis.Closing.Month == 0 {
		basis.Closing = YearEnd
	}
	p := f.Params
	if p.Validate() != nil {
		return time.Time{}, false
	}
	switch f.Type {
	case TypeFixed:
		return fixed(p, basis)
	case TypeRelativeToCloture:
		closing := basis.Closing.In(basis.FiscalYear)
		return addMonths(closing, p.MoisOffset).AddDate(0, 0, p.JoursOffset), true
	case TypeClotureConditional:
		branch := p.DateB
		if basis.Closing.IsYearEnd() {
			branch = p.DateA
		}
		if branch == nil {
			return time.Time{}, false
		}
		kind := branch.Type
		if kind == "" {
			kind = TypeFixed
		}
		if kind == TypeClotureConditional {
			// A branch must resolve to a concrete date, not another switch.
			return time.Time{}, false
		}
		return Calculate(Formula{Type: kind, Params: *branch}, basis)
	case TypeEndOfMonthPlusOffset:
		month, ok := instanceMonth(p.Mois, basis)
		if !ok {
			return time.Time{}, false
		}
		year, m := rollMonth(basis.FiscalYear, month)
		return endOfMonth(year, m).AddDate(0, 0, offsetDays(p, basis)), true
	case TypeEndOfQuarterPlusOffset:
		quarter, ok := instanceQuarter(p.Trimestre, basis)
		if !ok || quarter < 1 || quarter > 4 {
			return time.Time{}, false
		}
		end := endOfMonth(basis.FiscalYear, time.Month(quarter*3))
		return end.AddDate(0, 0, offsetDays(p, basis)), true
	case TypeRelativeToAGO:
		meeting := generalMeeting(basis)
		return addMonths(meeting, p.MoisOffset).AddDate(0, 0, p.JoursOffset), true
	case TypeAcompteCloturePeriod:
		return acompte(p.AcompteNum, basis)
	default:
		return time.Time{}, false
	}
}

func fixed(p Params, basis Basis) (time.Time, bool) {
	if p.Jour == nil {
		return time.Time{}, false
	}
	month, ok := instanceMonth(p.Mois, basis)
	if !ok {
		return time.Time{}, false
	}
	year, m := rollMonth(basis.FiscalYear+p.AnneeOffset, month+p.MoisOffset)
	return date(year, m, *p.Jour), true
}

// generalMeeting returns the accounts-approval meeting held during the fiscal
// year: six months after the closing, taken from the previous closing when
// the current one would push it into the following year.
func generalMeeting(basis Basis) time.Time {
	meeting := addMonths(basis.Closing.In(basis.FiscalYear), meetingDelay)
	if meeting.Year() > basis.FiscalYear {
		meeting = addMonths(basis.Closing.In(basis.FiscalYear-1), meetingDelay)
	}
	return meeting
}

func instanceMonth(mois *int, basis Basis) (int, bool) {
	switch {
	case basis.Month != 0:
		return basis.Month, true
	case basis.Quarter != 0:
		return basis.Quarter * 3, true
	case mois != nil:
		return *mois, true
	default:
		return 0, false
	}
}

func instanceQuarter(trimestre *int, basis Basis) (int, bool) {
	switch {
	case basis.Quarter != 0:
		return basis.Quarter, true
	case basis.Month != 0:
		return (basis.Month + 2) / 3, true
	case trimestre != nil:
		return *trimestre, true
	default:
		return 0, false
	}
}

func offsetDays(p Params, basis Basis) int {
	if p.OffsetJours != nil {
		return *p.OffsetJours
	}
	return basis.VATDueDay
}
