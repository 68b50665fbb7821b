// Package generator selects the obligation strategy for an entity run.
//
// A configured decision graph wins over linear rules, and linear rules win
// over the built-in legacy generator. Every strategy shares the condition,
// date formula and expansion primitives, so they differ only in how
// templates are selected.
package generator

import (
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/decisiongraph"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/legacy"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/rules"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

// Strategy produces the obligations of one snapshot for one fiscal year.
type Strategy interface {
	Name() string
	Generate(s snapshot.Snapshot, fiscalYear int) []obligation.Obligation
}

// Sources holds the stored definitions available for a run.
type Sources struct {
	Graph decisiongraph.Graph
	Rules []rules.Rule
}

// Result is the output of a generation and the strategy that produced it.
type Result struct {
	Strategy    string
	Obligations []obligation.Obligation
}

// Select picks the strategy for the given definitions.
func Select(src Sources) Strategy {
	if !src.Graph.Empty() {
		return decisiongraph.New(src.Graph)
	}
	if rules.HasActive(src.Rules) {
		return rules.New(src.Rules)
	}
	return legacy.New()
}

// Generate runs the selected strategy.
func Generate(src Sources, s snapshot.Snapshot, fiscalYear int) Result {
	strategy := Select(src)
	return Result{
		Strategy:    strategy.Name(),
		Obligations: strategy.Generate(s, fiscalYear),
	}
}
