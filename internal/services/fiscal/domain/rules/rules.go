// Package rules evaluates the linear rule model: an ordered list of rules,
// each gated by root conditions and holding independently evaluated branches.
package rules

import (
	"sort"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/condition"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/dateformula"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/expand"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

// Rule is one conditionally active unit of the linear model.
type Rule struct {
	ID             string                `json:"id,omitempty"`
	Name           string                `json:"name,omitempty"`
	Order          int                   `json:"order"`
	Active         bool                  `json:"active"`
	RootConditions []condition.Condition `json:"rootConditions,omitempty"`
	Branches       []Branch              `json:"branches,omitempty"`
}

// Branch is a conditional group of task templates inside a rule. Empty
// conditions always match.
type Branch struct {
	Conditions    []condition.Condition `json:"conditions,omitempty"`
	TaskTemplates []expand.Template     `json:"taskTemplates,omitempty"`
}

// Evaluator runs an ordered rule list. The zero value is not usable; build
// it with New.
type Evaluator struct {
	rules []Rule
}

// New returns an evaluator over a copy of list sorted by order. Rules with
// equal order keep their input order.
func New(list []Rule) *Evaluator {
	sorted := make([]Rule, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return &Evaluator{rules: sorted}
}

// Name identifies the strategy.
func (e *Evaluator) Name() string { return "rules" }

// Empty reports whether no active rule exists.
func (e *Evaluator) Empty() bool {
	return !HasActive(e.rules)
}

// Generate evaluates every active rule for the snapshot and fiscal year.
// Results are grouped rule by rule, then branch by branch, then template by
// template, without deduplication.
func (e *Evaluator) Generate(s snapshot.Snapshot, fiscalYear int) []obligation.Obligation {
	basis := dateformula.Basis{
		FiscalYear: fiscalYear,
		Closing:    dateformula.ParseClosing(s.DateClotureComptable),
		VATDueDay:  s.VATDueDay(),
	}
	var out []obligation.Obligation
	for _, rule := range e.rules {
		out = append(out, evaluateRule(rule, s, basis)...)
	}
	return out
}

func evaluateRule(rule Rule, s snapshot.Snapshot, basis dateformula.Basis) []obligation.Obligation {
	if !rule.Active || !condition.All(s, rule.RootConditions) {
		return nil
	}
	if len(rule.Branches) == 1 && len(rule.Branches[0].Conditions) == 0 {
		return expand.All(rule.Branches[0].TaskTemplates, basis)
	}
	var out []obligation.Obligation
	for _, branch := range rule.Branches {
		if !condition.All(s, branch.Conditions) {
			continue
		}
		out = append(out, expand.All(branch.TaskTemplates, basis)...)
	}
	return out
}

// HasActive reports whether list contains at least one active rule.
func HasActive(list []Rule) bool {
	for _, rule := range list {
		if rule.Active {
			return true
		}
	}
	return false
}
