// Package expand turns task templates into dated obligations, unrolling
// monthly and quarterly repetitions.
package expand

import (
	"strconv"
	"strings"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/dateformula"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
)

// Frequency names a template repetition period.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Template describes an obligation to produce, possibly repeated.
type Template struct {
	// Name may contain {mois}, {m}, {trimestre} or {q} placeholders that are
	// filled for each repeated instance.
	Name          string              `json:"name"`
	Category      string              `json:"category,omitempty"`
	FormReference string              `json:"formReference,omitempty"`
	DateFormula   dateformula.Formula `json:"dateFormula"`
	Repeat        *Repeat             `json:"repeat,omitempty"`
}

// Repeat configures template repetition.
type Repeat struct {
	Frequency      Frequency `json:"frequency"`
	ExcludedMonths []int     `json:"excludedMonths,omitempty"`
}

var monthNames = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var quarterNames = [4]string{
	"1er trimestre", "2e trimestre", "3e trimestre", "4e trimestre",
}

// Expand produces the obligations of tpl for the given basis. Templates with
// an unknown repeat frequency expand as non-repeating.
func Expand(tpl Template, basis dateformula.Basis) []obligation.Obligation {
	if tpl.Repeat == nil {
		return []obligation.Obligation{instance(tpl, tpl.Name, basis)}
	}
	excluded := make(map[int]bool, len(tpl.Repeat.ExcludedMonths))
	for _, m := range tpl.Repeat.ExcludedMonths {
		excluded[m] = true
	}

	switch tpl.Repeat.Frequency {
	case FrequencyMonthly:
		out := make([]obligation.Obligation, 0, 12)
		for month := 1; month <= 12; month++ {
			if excluded[month] {
				continue
			}
			b := basis
			b.Month, b.Quarter = month, 0
			out = append(out, instance(tpl, monthName(tpl.Name, month), b))
		}
		return out
	case FrequencyQuarterly:
		out := make([]obligation.Obligation, 0, 4)
		for quarter := 1; quarter <= 4; quarter++ {
			if quarterExcluded(quarter, excluded) {
				continue
			}
			b := basis
			b.Month, b.Quarter = 0, quarter
			out = append(out, instance(tpl, quarterName(tpl.Name, quarter), b))
		}
		return out
	default:
		return []obligation.Obligation{instance(tpl, tpl.Name, basis)}
	}
}

// All expands every template in order and concatenates the results.
func All(templates []Template, basis dateformula.Basis) []obligation.Obligation {
	var out []obligation.Obligation
	for _, tpl := range templates {
		out = append(out, Expand(tpl, basis)...)
	}
	return out
}

func instance(tpl Template, name string, basis dateformula.Basis) obligation.Obligation {
	o := obligation.Obligation{
		Name:          name,
		Category:      tpl.Category,
		FormReference: tpl.FormReference,
	}
	if due, ok := dateformula.Calculate(tpl.DateFormula, basis); ok {
		o = o.WithDue(due)
	}
	return o
}

func quarterExcluded(quarter int, excluded map[int]bool) bool {
	for month := quarter*3 - 2; month <= quarter*3; month++ {
		if excluded[month] {
			return true
		}
	}
	return false
}

func monthName(name string, month int) string {
	return strings.NewReplacer(
		"{mois}", monthNames[month-1],
		"{m}", strconv.Itoa(month),
	).Replace(name)
}

func quarterName(name string, quarter int) string {
	return strings.NewReplacer(
		"{trimestre}", quarterNames[quarter-1],
		"{q}", strconv.Itoa(quarter),
	).Replace(name)
}
