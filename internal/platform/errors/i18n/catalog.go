// Package i18n holds the user-facing error message catalogs.
//
// French is the base locale; requested locales are matched against the
// available catalogs with golang.org/x/text/language.
package i18n

import (
	"bytes"
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the locale used when nothing better matches.
const BaseLocale = "fr-FR"

// Catalog maps error codes to message templates for one locale.
type Catalog struct {
	locale   string
	messages map[string]string
}

var (
	supported = []language.Tag{language.MustParse("fr-FR"), language.MustParse("en-US")}
	matcher   = language.NewMatcher(supported)
	catalogs  = map[string]*Catalog{
		"fr-FR": {locale: "fr-FR", messages: frFR},
		"en-US": {locale: "en-US", messages: enUS},
	}
)

// Match resolves a locale or Accept-Language value to a supported locale.
func Match(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}
	return supported[index].String()
}

// GetCatalog returns the catalog best matching locale.
func GetCatalog(locale string) *Catalog {
	return catalogs[Match(locale)]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the template for code with metadata. Unknown codes render
// as the code itself.
func (c *Catalog) Format(code string, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	t, err := template.New(code).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

var frFR = map[string]string{
	"UNKNOWN":                 "Une erreur inattendue est survenue.",
	"ENTITY_EMPTY_ID":         "L'identifiant du dossier est obligatoire.",
	"ENTITY_EMPTY_NAME":       "Le nom du dossier est obligatoire.",
	"RUN_EMPTY_ID":            "L'identifiant de l'échéancier est obligatoire.",
	"RUN_INVALID_FISCAL_YEAR": "L'exercice {{.fiscal_year}} n'est pas valide.",
	"RUN_ALREADY_EXISTS":      "Un échéancier existe déjà pour l'exercice {{.fiscal_year}}.",
	"RUN_INVALID_TASK_FILTER": "Le filtre de tâches n'est pas valide : {{.reason}}",
	"RUN_GENERATION_DISABLED": "La génération des échéances est désactivée.",
	"DEFINITION_INVALID":      "La définition des règles n'est pas valide : {{.reason}}",
	"NOT_FOUND":               `{{if eq .resource "run"}}Échéancier{{else}}Dossier{{end}} introuvable.`,
}

var enUS = map[string]string{
	"UNKNOWN":                 "An unexpected error occurred.",
	"ENTITY_EMPTY_ID":         "The entity id is required.",
	"ENTITY_EMPTY_NAME":       "The entity name is required.",
	"RUN_EMPTY_ID":            "The run id is required.",
	"RUN_INVALID_FISCAL_YEAR": "Fiscal year {{.fiscal_year}} is not valid.",
	"RUN_ALREADY_EXISTS":      "A run already exists for fiscal year {{.fiscal_year}}.",
	"RUN_INVALID_TASK_FILTER": "The task filter is not valid: {{.reason}}",
	"RUN_GENERATION_DISABLED": "Obligation generation is disabled.",
	"DEFINITION_INVALID":      "The rule definition is not valid: {{.reason}}",
	"NOT_FOUND":               `{{if eq .resource "run"}}Run{{else}}Entity{{end}} not found.`,
}
