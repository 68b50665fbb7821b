package condition

import (
	"testing"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

func testSnapshot() snapshot.Snapshot {
	employees := 25
	revenue := 180000.0
	return snapshot.Snapshot{
		CategorieFiscale:     "IS",
		RegimeFiscal:         "reel_simplifie",
		DateClotureComptable: "31/12",
		Departement:          "75",
		NombreSalaries:       &employees,
		ChiffreAffairesN1:    &revenue,
		TaxeVehicules:        true,
	}
}

func TestEvaluateOperators(t *testing.T) {
	s := testSnapshot()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals match", Condition{Field: "categorieFiscale", Operator: OpEquals, Value: "IS"}, true},
		{"equals mismatch", Condition{Field: "categorieFiscale", Operator: OpEquals, Value: "IR"}, false},
		{"equals number", Condition{Field: "nombreSalaries", Operator: OpEquals, Value: 25.0}, true},
		{"equals int literal", Condition{Field: "nombreSalaries", Operator: OpEquals, Value: 25}, true},
		{"equals numeric string", Condition{Field: "nombreSalaries", Operator: OpEquals, Value: "25"}, true},
		{"not equals numeric string", Condition{Field: "nombreSalaries", Operator: OpNotEquals, Value: "25"}, false},
		{"in numeric strings", Condition{Field: "nombreSalaries", Operator: OpIn, Value: []any{"10", "25"}}, true},
		{"equals word on number", Condition{Field: "nombreSalaries", Operator: OpEquals, Value: "vingt-cinq"}, false},
		{"equals bool on number", Condition{Field: "nombreSalaries", Operator: OpEquals, Value: true}, false},
		{"not equals match", Condition{Field: "categorieFiscale", Operator: OpNotEquals, Value: "IR"}, true},
		{"not equals mismatch", Condition{Field: "categorieFiscale", Operator: OpNotEquals, Value: "IS"}, false},
		{"in list", Condition{Field: "regimeFiscal", Operator: OpIn, Value: []any{"reel_normal", "reel_simplifie"}}, true},
		{"in list miss", Condition{Field: "regimeFiscal", Operator: OpIn, Value: []any{"micro"}}, false},
		{"not in list", Condition{Field: "regimeFiscal", Operator: OpNotIn, Value: []any{"micro"}}, true},
		{"not in list hit", Condition{Field: "regimeFiscal", Operator: OpNotIn, Value: []any{"reel_simplifie"}}, false},
		{"in non array", Condition{Field: "regimeFiscal", Operator: OpIn, Value: "reel_simplifie"}, false},
		{"not in non array", Condition{Field: "regimeFiscal", Operator: OpNotIn, Value: "micro"}, false},
		{"gt", Condition{Field: "nombreSalaries", Operator: OpGT, Value: 20.0}, true},
		{"gt boundary", Condition{Field: "nombreSalaries", Operator: OpGT, Value: 25.0}, false},
		{"gte boundary", Condition{Field: "nombreSalaries", Operator: OpGTE, Value: 25.0}, true},
		{"lt", Condition{Field: "chiffreAffairesN1", Operator: OpLT, Value: 200000.0}, true},
		{"lte numeric string", Condition{Field: "chiffreAffairesN1", Operator: OpLTE, Value: "180000"}, true},
		{"gt on string field", Condition{Field: "categorieFiscale", Operator: OpGT, Value: 1.0}, false},
		{"gt on unset field", Condition{Field: "montantCFEN1", Operator: OpGT, Value: 0.0}, false},
		{"is true", Condition{Field: "taxeVehicules", Operator: OpIsTrue}, true},
		{"is true on false", Condition{Field: "taxeFonciere", Operator: OpIsTrue}, false},
		{"is false", Condition{Field: "taxeFonciere", Operator: OpIsFalse}, true},
		{"is false on string", Condition{Field: "departement", Operator: OpIsFalse}, false},
		{"is set", Condition{Field: "departement", Operator: OpIsSet}, true},
		{"is set empty string", Condition{Field: "secteurActivite", Operator: OpIsSet}, false},
		{"is set unset number", Condition{Field: "montantCVAEN1", Operator: OpIsSet}, false},
		{"is not set", Condition{Field: "montantCVAEN1", Operator: OpIsNotSet}, true},
		{"starts with", Condition{Field: "regimeFiscal", Operator: OpStartsWith, Value: "reel"}, true},
		{"starts with miss", Condition{Field: "regimeFiscal", Operator: OpStartsWith, Value: "micro"}, false},
		{"unknown operator", Condition{Field: "categorieFiscale", Operator: "matches", Value: "IS"}, false},
		{"unknown field equals", Condition{Field: "nope", Operator: OpEquals, Value: "IS"}, false},
		{"unknown field is true", Condition{Field: "nope", Operator: OpIsTrue}, false},
		{"unknown field is false", Condition{Field: "nope", Operator: OpIsFalse}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(s, tt.cond); got != tt.want {
				t.Fatalf("evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAll(t *testing.T) {
	s := testSnapshot()
	if !All(s, nil) {
		t.Fatal("expected empty condition list to hold")
	}
	conds := []Condition{
		{Field: "categorieFiscale", Operator: OpEquals, Value: "IS"},
		{Field: "taxeVehicules", Operator: OpIsTrue},
	}
	if !All(s, conds) {
		t.Fatal("expected all conditions to hold")
	}
	conds = append(conds, Condition{Field: "departement", Operator: OpEquals, Value: "13"})
	if All(s, conds) {
		t.Fatal("expected failing condition to reject conjunction")
	}
}

func TestEvaluateNilFields(t *testing.T) {
	if Evaluate(nil, Condition{Field: "x", Operator: OpIsNotSet}) {
		t.Fatal("expected nil field set to evaluate false")
	}
}

func TestOperatorValid(t *testing.T) {
	if !OpStartsWith.Valid() || !OpIsNotSet.Valid() {
		t.Fatal("expected known operators to be valid")
	}
	if Operator("contains").Valid() {
		t.Fatal("expected unknown operator to be invalid")
	}
}
