package legacy

import (
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dueOf(t *testing.T, list []obligation.Obligation, name string) time.Time {
	t.Helper()
	for _, o := range list {
		if o.Name != name {
			continue
		}
		due, ok := o.Due()
		if !ok {
			t.Fatalf("%q has no due date", name)
		}
		return due
	}
	t.Fatalf("obligation %q not generated; got %v", name, names(list))
	return time.Time{}
}

func names(list []obligation.Obligation) []string {
	out := make([]string, len(list))
	for i, o := range list {
		out[i] = o.Name
	}
	return out
}

func TestGenerateSimplifiedCorporateEntity(t *testing.T) {
	s := snapshot.Snapshot{
		CategorieFiscale:     "IS",
		RegimeFiscal:         "reel_simplifie",
		DateClotureComptable: "31/12",
		PaiementISUnique:     false,
	}
	got := New().Generate(s, 2024)

	tests := []struct {
		name string
		want time.Time
	}{
		{name: "Liasse fiscale IS simplifiée", want: day(2025, time.May, 15)},
		{name: "Acompte IS n°1", want: day(2024, time.March, 15)},
		{name: "Acompte IS n°2", want: day(2024, time.June, 15)},
		{name: "Acompte IS n°3", want: day(2024, time.September, 15)},
		{name: "Acompte IS n°4", want: day(2024, time.December, 15)},
		{name: "Approbation des comptes", want: day(2024, time.June, 30)},
	}
	for _, tt := range tests {
		if due := dueOf(t, got, tt.name); !due.Equal(tt.want) {
			t.Fatalf("%s due = %v, want %v", tt.name, due, tt.want)
		}
	}
	for _, o := range got {
		if strings.Contains(o.Name, "normale") {
			t.Fatalf("unexpected normal-regime return %q", o.Name)
		}
	}
}

func TestGenerateSinglePaymentSkipsInstallments(t *testing.T) {
	s := snapshot.Snapshot{CategorieFiscale: "IS", RegimeFiscal: "reel_normal", PaiementISUnique: true}
	for _, o := range New().Generate(s, 2024) {
		if strings.HasPrefix(o.Name, "Acompte IS") {
			t.Fatalf("unexpected installment %q", o.Name)
		}
	}
}

func TestGenerateOffsetClosing(t *testing.T) {
	s := snapshot.Snapshot{CategorieFiscale: "IS", RegimeFiscal: "reel_normal", DateClotureComptable: "30/06"}
	got := New().Generate(s, 2024)

	if due, want := dueOf(t, got, "Liasse fiscale IS normale"), day(2024, time.October, 15); !due.Equal(want) {
		t.Fatalf("return due = %v, want %v", due, want)
	}
	if due, want := dueOf(t, got, "Acompte IS n°1"), day(2023, time.September, 15); !due.Equal(want) {
		t.Fatalf("first installment due = %v, want %v", due, want)
	}
	if due, want := dueOf(t, got, "Approbation des comptes"), day(2024, time.December, 30); !due.Equal(want) {
		t.Fatalf("approval due = %v, want %v", due, want)
	}
}

func TestGenerateMonthlyVAT(t *testing.T) {
	dueDay := 19
	s := snapshot.Snapshot{
		CategorieFiscale: "IR",
		RegimeFiscal:     "micro",
		RegimeTVA:        "reel_normal",
		FrequenceTVA:     "mensuelle",
		JourEcheanceTVA:  &dueDay,
	}
	got := New().Generate(s, 2024)

	var vat []obligation.Obligation
	for _, o := range got {
		if o.Category == categoryTVA {
			vat = append(vat, o)
		}
	}
	if len(vat) != 12 {
		t.Fatalf("vat obligations = %d, want 12", len(vat))
	}
	if vat[0].Name != "TVA CA3 janvier" {
		t.Fatalf("first vat name = %q", vat[0].Name)
	}
	if due, want := dueOf(t, vat, "TVA CA3 décembre"), day(2025, time.January, 19); !due.Equal(want) {
		t.Fatalf("december vat due = %v, want %v", due, want)
	}
	for _, o := range got {
		if o.Category == categoryIR {
			t.Fatalf("micro regime should not file %q", o.Name)
		}
	}
}

func TestGenerateThresholds(t *testing.T) {
	employees := 3
	revenue := 750000.0
	cvae := 2000.0
	surface := 300.0
	s := snapshot.Snapshot{
		CategorieFiscale:   "IS",
		ChiffreAffairesN1:  &revenue,
		MontantCVAEN1:      &cvae,
		NombreSalaries:     &employees,
		SurfaceCommerciale: &surface,
		TaxeFonciere:       true,
	}
	got := names(New().Generate(s, 2024))
	joined := strings.Join(got, "|")

	for _, want := range []string{"Déclaration de valeur ajoutée", "Acompte CVAE de juin", "DSN mars", "Taxe foncière", "Solde CFE"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %v", want, got)
		}
	}
	for _, unwanted := range []string{"Taxe sur les surfaces commerciales", "Acompte CFE"} {
		if strings.Contains(joined, unwanted) {
			t.Fatalf("unexpected %q in %v", unwanted, got)
		}
	}
}

func TestRulesReturnsFreshCopy(t *testing.T) {
	first := Rules()
	first[0].Active = false
	if !Rules()[0].Active {
		t.Fatal("mutating a returned rule set leaked into the next call")
	}
}
