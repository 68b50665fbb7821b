package i18n

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		requested string
		want      string
	}{
		{requested: "", want: "fr-FR"},
		{requested: "fr", want: "fr-FR"},
		{requested: "en-GB", want: "en-US"},
		{requested: "de-DE,en;q=0.8", want: "en-US"},
		{requested: "ja-JP", want: "fr-FR"},
		{requested: "not a locale!!", want: "fr-FR"},
	}
	for _, tt := range tests {
		if got := Match(tt.requested); got != tt.want {
			t.Fatalf("Match(%q) = %q, want %q", tt.requested, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	fr := GetCatalog("fr-FR")
	if got := fr.Format("RUN_INVALID_FISCAL_YEAR", map[string]string{"fiscal_year": "1850"}); got != "L'exercice 1850 n'est pas valide." {
		t.Fatalf("fr message = %q", got)
	}
	en := GetCatalog("en")
	if got := en.Format("NOT_FOUND", map[string]string{"resource": "run"}); got != "Run not found." {
		t.Fatalf("en message = %q", got)
	}
	if got := fr.Format("NOT_FOUND", map[string]string{"resource": "run"}); got != "Échéancier introuvable." {
		t.Fatalf("fr run message = %q", got)
	}
	if got := en.Format("NOT_FOUND", nil); got != "Entity not found." {
		t.Fatalf("missing metadata message = %q", got)
	}
	if got := en.Format("SOMETHING_ELSE", nil); got != "SOMETHING_ELSE" {
		t.Fatalf("unknown code message = %q", got)
	}
}

func TestCatalogsCoverSameCodes(t *testing.T) {
	for code := range frFR {
		if _, ok := enUS[code]; !ok {
			t.Fatalf("en-US catalog misses %s", code)
		}
	}
	for code := range enUS {
		if _, ok := frFR[code]; !ok {
			t.Fatalf("fr-FR catalog misses %s", code)
		}
	}
}
