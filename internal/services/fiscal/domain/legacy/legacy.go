// Package legacy holds the built-in obligation rules used before any rule or
// graph definition has been stored for the practice.
//
// The rules are data, evaluated by the linear rule evaluator. Once a practice
// has imported its own definitions this package is never selected.
package legacy

import (
	"strconv"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/condition"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/dateformula"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/expand"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/rules"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

// Name identifies the legacy strategy in run records.
const Name = "legacy"

// Generator evaluates the built-in rule set.
type Generator struct {
	eval *rules.Evaluator
}

// New returns a generator over Rules.
func New() *Generator {
	return &Generator{eval: rules.New(Rules())}
}

// Name identifies the strategy.
func (g *Generator) Name() string { return Name }

// Generate evaluates the built-in rules for the snapshot and fiscal year.
func (g *Generator) Generate(s snapshot.Snapshot, fiscalYear int) []obligation.Obligation {
	return g.eval.Generate(s, fiscalYear)
}

const (
	categoryIS      = "IS"
	categoryIR      = "IR"
	categoryTVA     = "TVA"
	categoryCFE     = "CFE"
	categoryCVAE    = "CVAE"
	categorySocial  = "Social"
	categoryJuridic = "Juridique"
	categoryLocal   = "Taxes locales"
)

// Rules returns a fresh copy of the built-in rule set, so callers may
// export or edit it.
func Rules() []rules.Rule {
	return []rules.Rule{
		{
			ID:             "legacy-is",
			Name:           "Impôt sur les sociétés",
			Order:          10,
			Active:         true,
			RootConditions: []condition.Condition{eq(snapshot.FieldCategorieFiscale, "IS")},
			Branches: []rules.Branch{
				{
					Conditions: []condition.Condition{eq(snapshot.FieldRegimeFiscal, "reel_simplifie")},
					TaskTemplates: []expand.Template{
						task("Liasse fiscale IS simplifiée", categoryIS, "2065-SD / 2033", returnDue()),
					},
				},
				{
					Conditions: []condition.Condition{eq(snapshot.FieldRegimeFiscal, "reel_normal")},
					TaskTemplates: []expand.Template{
						task("Liasse fiscale IS normale", categoryIS, "2065-SD / 2050", returnDue()),
					},
				},
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldPaiementISUnique, Operator: condition.OpIsFalse}},
					TaskTemplates: []expand.Template{
						acompteIS(1), acompteIS(2), acompteIS(3), acompteIS(4),
					},
				},
				{
					TaskTemplates: []expand.Template{
						task("Solde IS", categoryIS, "2572-SD", conditional(
							dateformula.Params{Jour: intPtr(15), Mois: intPtr(5), AnneeOffset: 1},
							dateformula.Params{Type: dateformula.TypeRelativeToCloture, MoisOffset: 4, JoursOffset: 15},
						)),
					},
				},
			},
		},
		{
			ID:             "legacy-ir",
			Name:           "Bénéfices industriels et commerciaux",
			Order:          20,
			Active:         true,
			RootConditions: []condition.Condition{eq(snapshot.FieldCategorieFiscale, "IR")},
			Branches: []rules.Branch{
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldRegimeFiscal, Operator: condition.OpNotEquals, Value: "micro"}},
					TaskTemplates: []expand.Template{
						task("Déclaration de résultats BIC", categoryIR, "2031-SD", fixed(15, 5, 1)),
					},
				},
			},
		},
		{
			ID:     "legacy-approbation",
			Name:   "Approbation des comptes",
			Order:  30,
			Active: true,
			RootConditions: []condition.Condition{
				{Field: snapshot.FieldCategorieFiscale, Operator: condition.OpEquals, Value: "IS"},
			},
			Branches: []rules.Branch{
				{
					TaskTemplates: []expand.Template{
						task("Approbation des comptes", categoryJuridic, "", formula(dateformula.TypeRelativeToAGO, dateformula.Params{})),
						task("Dépôt des comptes au greffe", categoryJuridic, "", formula(dateformula.TypeRelativeToAGO, dateformula.Params{MoisOffset: 1})),
					},
				},
			},
		},
		{
			ID:             "legacy-tva-reel-normal",
			Name:           "TVA réel normal",
			Order:          40,
			Active:         true,
			RootConditions: []condition.Condition{eq(snapshot.FieldRegimeTVA, "reel_normal")},
			Branches: []rules.Branch{
				{
					Conditions: []condition.Condition{eq(snapshot.FieldFrequenceTVA, "mensuelle")},
					TaskTemplates: []expand.Template{{
						Name:          "TVA CA3 {mois}",
						Category:      categoryTVA,
						FormReference: "3310-CA3",
						DateFormula:   formula(dateformula.TypeEndOfMonthPlusOffset, dateformula.Params{}),
						Repeat:        &expand.Repeat{Frequency: expand.FrequencyMonthly},
					}},
				},
				{
					Conditions: []condition.Condition{eq(snapshot.FieldFrequenceTVA, "trimestrielle")},
					TaskTemplates: []expand.Template{{
						Name:          "TVA CA3 {trimestre}",
						Category:      categoryTVA,
						FormReference: "3310-CA3",
						DateFormula:   formula(dateformula.TypeEndOfQuarterPlusOffset, dateformula.Params{}),
						Repeat:        &expand.Repeat{Frequency: expand.FrequencyQuarterly},
					}},
				},
			},
		},
		{
			ID:             "legacy-tva-reel-simplifie",
			Name:           "TVA réel simplifié",
			Order:          50,
			Active:         true,
			RootConditions: []condition.Condition{eq(snapshot.FieldRegimeTVA, "reel_simplifie")},
			Branches: []rules.Branch{
				{
					TaskTemplates: []expand.Template{
						task("Acompte TVA de juillet", categoryTVA, "2589", fixed(15, 7, 0)),
						task("Acompte TVA de décembre", categoryTVA, "2589", fixed(15, 12, 0)),
						task("Déclaration annuelle CA12", categoryTVA, "3517-S-SD", conditional(
							dateformula.Params{Jour: intPtr(3), Mois: intPtr(5), AnneeOffset: 1},
							dateformula.Params{Type: dateformula.TypeRelativeToCloture, MoisOffset: 3},
						)),
					},
				},
			},
		},
		{
			ID:     "legacy-cfe",
			Name:   "Cotisation foncière des entreprises",
			Order:  60,
			Active: true,
			RootConditions: []condition.Condition{
				{Field: snapshot.FieldCategorieFiscale, Operator: condition.OpIsSet},
			},
			Branches: []rules.Branch{
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldMontantCFEN1, Operator: condition.OpGTE, Value: 3000}},
					TaskTemplates: []expand.Template{
						task("Acompte CFE", categoryCFE, "", fixed(15, 6, 0)),
					},
				},
				{
					TaskTemplates: []expand.Template{
						task("Solde CFE", categoryCFE, "", fixed(15, 12, 0)),
					},
				},
			},
		},
		{
			ID:     "legacy-cvae",
			Name:   "Cotisation sur la valeur ajoutée",
			Order:  70,
			Active: true,
			RootConditions: []condition.Condition{
				{Field: snapshot.FieldChiffreAffairesN1, Operator: condition.OpGT, Value: 500000},
			},
			Branches: []rules.Branch{
				{
					TaskTemplates: []expand.Template{
						task("Déclaration de valeur ajoutée", categoryCVAE, "1330-CVAE-SD", fixed(3, 5, 1)),
					},
				},
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldMontantCVAEN1, Operator: condition.OpGT, Value: 1500}},
					TaskTemplates: []expand.Template{
						task("Acompte CVAE de juin", categoryCVAE, "1329-AC-SD", fixed(15, 6, 0)),
						task("Acompte CVAE de septembre", categoryCVAE, "1329-AC-SD", fixed(15, 9, 0)),
					},
				},
			},
		},
		{
			ID:     "legacy-social",
			Name:   "Obligations sociales",
			Order:  80,
			Active: true,
			RootConditions: []condition.Condition{
				{Field: snapshot.FieldNombreSalaries, Operator: condition.OpGT, Value: 0},
			},
			Branches: []rules.Branch{
				{
					TaskTemplates: []expand.Template{{
						Name:          "DSN {mois}",
						Category:      categorySocial,
						FormReference: "DSN",
						DateFormula:   formula(dateformula.TypeEndOfMonthPlusOffset, dateformula.Params{OffsetJours: intPtr(5)}),
						Repeat:        &expand.Repeat{Frequency: expand.FrequencyMonthly},
					}},
				},
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldMontantTaxeSalairesN1, Operator: condition.OpIsSet}},
					TaskTemplates: []expand.Template{
						task("Déclaration annuelle de taxe sur les salaires", categorySocial, "2502-SD", fixed(15, 1, 1)),
					},
				},
			},
		},
		{
			ID:     "legacy-taxes-locales",
			Name:   "Taxes locales",
			Order:  90,
			Active: true,
			Branches: []rules.Branch{
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldTaxeFonciere, Operator: condition.OpIsTrue}},
					TaskTemplates: []expand.Template{
						task("Taxe foncière", categoryLocal, "", fixed(15, 10, 0)),
					},
				},
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldSurfaceCommerciale, Operator: condition.OpGT, Value: 400}},
					TaskTemplates: []expand.Template{
						task("Taxe sur les surfaces commerciales", categoryLocal, "3350-SD", fixed(15, 6, 0)),
					},
				},
				{
					Conditions: []condition.Condition{{Field: snapshot.FieldTaxeVehicules, Operator: condition.OpIsTrue}},
					TaskTemplates: []expand.Template{
						task("Taxes sur les véhicules de tourisme", categoryLocal, "3310-A", fixed(25, 1, 1)),
					},
				},
			},
		},
	}
}

// returnDue is the annual return deadline: 15 May after a calendar-year
// closing, otherwise three months and fifteen days after the closing.
func returnDue() dateformula.Formula {
	return conditional(
		dateformula.Params{Jour: intPtr(15), Mois: intPtr(5), AnneeOffset: 1},
		dateformula.Params{Type: dateformula.TypeRelativeToCloture, MoisOffset: 3, JoursOffset: 15},
	)
}

func acompteIS(num int) expand.Template {
	return task(
		"Acompte IS n°"+strconv.Itoa(num),
		categoryIS,
		"2571-SD",
		formula(dateformula.TypeAcompteCloturePeriod, dateformula.Params{AcompteNum: num}),
	)
}

func task(name, category, form string, f dateformula.Formula) expand.Template {
	return expand.Template{Name: name, Category: category, FormReference: form, DateFormula: f}
}

func formula(t dateformula.Type, p dateformula.Params) dateformula.Formula {
	return dateformula.Formula{Type: t, Params: p}
}

func fixed(jour, mois, anneeOffset int) dateformula.Formula {
	return formula(dateformula.TypeFixed, dateformula.Params{Jour: intPtr(jour), Mois: intPtr(mois), AnneeOffset: anneeOffset})
}

func conditional(yearEnd, other dateformula.Params) dateformula.Formula {
	return formula(dateformula.TypeClotureConditional, dateformula.Params{DateA: &yearEnd, DateB: &other})
}

func eq(field string, value any) condition.Condition {
	return condition.Condition{Field: field, Operator: condition.OpEquals, Value: value}
}

func intPtr(v int) *int { return &v }
