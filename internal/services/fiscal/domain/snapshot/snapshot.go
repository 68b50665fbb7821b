package snapshot

// Field names used by conditions and the JSON representation of a Snapshot.
const (
	FieldCategorieFiscale      = "categorieFiscale"
	FieldRegimeFiscal          = "regimeFiscal"
	FieldRegimeTVA             = "regimeTVA"
	FieldFrequenceTVA          = "frequenceTVA"
	FieldJourEcheanceTVA       = "jourEcheanceTVA"
	FieldDateClotureComptable  = "dateClotureComptable"
	FieldChiffreAffairesN1     = "chiffreAffairesN1"
	FieldMontantCFEN1          = "montantCFEN1"
	FieldMontantCVAEN1         = "montantCVAEN1"
	FieldMontantTaxeSalairesN1 = "montantTaxeSalairesN1"
	FieldNombreSalaries        = "nombreSalaries"
	FieldProprietaireLocaux    = "proprietaireLocaux"
	FieldLocauxLoues           = "locauxLoues"
	FieldSecteurActivite       = "secteurActivite"
	FieldSurfaceCommerciale    = "surfaceCommerciale"
	FieldDepartement           = "departement"
	FieldTaxeFonciere          = "taxeFonciere"
	FieldTaxeVehicules         = "taxeVehicules"
	FieldPaiementISUnique      = "paiementISUnique"
	FieldTypeActivite          = "typeActivite"
	FieldFormeJuridique        = "formeJuridique"
)

// Snapshot is the fiscal profile of one business entity at generation time.
//
// Optional numeric attributes are pointers: nil means the practice never
// recorded the value, which conditions observe as "not set".
type Snapshot struct {
	CategorieFiscale      string   `json:"categorieFiscale,omitempty"`
	RegimeFiscal          string   `json:"regimeFiscal,omitempty"`
	RegimeTVA             string   `json:"regimeTVA,omitempty"`
	FrequenceTVA          string   `json:"frequenceTVA,omitempty"`
	JourEcheanceTVA       *int     `json:"jourEcheanceTVA,omitempty"`
	DateClotureComptable  string   `json:"dateClotureComptable,omitempty"`
	ChiffreAffairesN1     *float64 `json:"chiffreAffairesN1,omitempty"`
	MontantCFEN1          *float64 `json:"montantCFEN1,omitempty"`
	MontantCVAEN1         *float64 `json:"montantCVAEN1,omitempty"`
	MontantTaxeSalairesN1 *float64 `json:"montantTaxeSalairesN1,omitempty"`
	NombreSalaries        *int     `json:"nombreSalaries,omitempty"`
	ProprietaireLocaux    bool     `json:"proprietaireLocaux,omitempty"`
	LocauxLoues           bool     `json:"locauxLoues,omitempty"`
	SecteurActivite       string   `json:"secteurActivite,omitempty"`
	SurfaceCommerciale    *float64 `json:"surfaceCommerciale,omitempty"`
	Departement           string   `json:"departement,omitempty"`
	TaxeFonciere          bool     `json:"taxeFonciere,omitempty"`
	TaxeVehicules         bool     `json:"taxeVehicules,omitempty"`
	PaiementISUnique      bool     `json:"paiementISUnique,omitempty"`
	TypeActivite          string   `json:"typeActivite,omitempty"`
	FormeJuridique        string   `json:"formeJuridique,omitempty"`
}

// Value is a resolved snapshot attribute: a string, a float64 or a bool.
type Value = any

type getter func(Snapshot) (Value, bool)

var accessors = map[string]getter{
	FieldCategorieFiscale:      str(func(s Snapshot) string { return s.CategorieFiscale }),
	FieldRegimeFiscal:          str(func(s Snapshot) string { return s.RegimeFiscal }),
	FieldRegimeTVA:             str(func(s Snapshot) string { return s.RegimeTVA }),
	FieldFrequenceTVA:          str(func(s Snapshot) string { return s.FrequenceTVA }),
	FieldJourEcheanceTVA:       integer(func(s Snapshot) *int { return s.JourEcheanceTVA }),
	FieldDateClotureComptable:  str(func(s Snapshot) string { return s.DateClotureComptable }),
	FieldChiffreAffairesN1:     number(func(s Snapshot) *float64 { return s.ChiffreAffairesN1 }),
	FieldMontantCFEN1:          number(func(s Snapshot) *float64 { return s.MontantCFEN1 }),
	FieldMontantCVAEN1:         number(func(s Snapshot) *float64 { return s.MontantCVAEN1 }),
	FieldMontantTaxeSalairesN1: number(func(s Snapshot) *float64 { return s.MontantTaxeSalairesN1 }),
	FieldNombreSalaries:        integer(func(s Snapshot) *int { return s.NombreSalaries }),
	FieldProprietaireLocaux:    boolean(func(s Snapshot) bool { return s.ProprietaireLocaux }),
	FieldLocauxLoues:           boolean(func(s Snapshot) bool { return s.LocauxLoues }),
	FieldSecteurActivite:       str(func(s Snapshot) string { return s.SecteurActivite }),
	FieldSurfaceCommerciale:    number(func(s Snapshot) *float64 { return s.SurfaceCommerciale }),
	FieldDepartement:           str(func(s Snapshot) string { return s.Departement }),
	FieldTaxeFonciere:          boolean(func(s Snapshot) bool { return s.TaxeFonciere }),
	FieldTaxeVehicules:         boolean(func(s Snapshot) bool { return s.TaxeVehicules }),
	FieldPaiementISUnique:      boolean(func(s Snapshot) bool { return s.PaiementISUnique }),
	FieldTypeActivite:          str(func(s Snapshot) string { return s.TypeActivite }),
	FieldFormeJuridique:        str(func(s Snapshot) string { return s.FormeJuridique }),
}

// Lookup resolves a field by name. It reports false for unknown names and for
// optional values that are unset. Empty strings are returned as present so
// is_set can tell them apart from unknown fields.
func (s Snapshot) Lookup(name string) (Value, bool) {
	get, ok := accessors[name]
	if !ok {
		return nil, false
	}
	return get(s)
}

// Known reports whether name is a recognized snapshot field.
func Known(name string) bool {
	_, ok := accessors[name]
	return ok
}

// VATDueDay returns the configured VAT due-day, or 0 when unset.
func (s Snapshot) VATDueDay() int {
	if s.JourEcheanceTVA == nil {
		return 0
	}
	return *s.JourEcheanceTVA
}

func str(get func(Snapshot) string) getter {
	return func(s Snapshot) (Value, bool) { return get(s), true }
}

func boolean(get func(Snapshot) bool) getter {
	return func(s Snapshot) (Value, bool) { return get(s), true }
}

func number(get func(Snapshot) *float64) getter {
	return func(s Snapshot) (Value, bool) {
		v := get(s)
		if v == nil {
			return nil, false
		}
		return *v, true
	}
}

func integer(get func(Snapshot) *int) getter {
	return func(s Snapshot) (Value, bool) {
		v := get(s)
		if v == nil {
			return nil, false
		}
		return float64(*v), true
	}
}
