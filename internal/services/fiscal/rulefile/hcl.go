package rulefile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/condition"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/dateformula"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/expand"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/rules"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

type hclRuleFile struct {
	Rules []*hclRule `hcl:"rule,block"`
}

type hclRule struct {
	Name     string          `hcl:"name,label"`
	ID       string          `hcl:"id,optional"`
	Order    int             `hcl:"order,optional"`
	Active   *bool           `hcl:"active,optional"`
	When     []*hclCondition `hcl:"when,block"`
	Branches []*hclBranch    `hcl:"branch,block"`
}

type hclCondition struct {
	Field    string         `hcl:"field"`
	Operator string         `hcl:"operator"`
	Value    hcl.Expression `hcl:"value,optional"`
}

type hclBranch struct {
	When  []*hclCondition `hcl:"when,block"`
	Tasks []*hclTask      `hcl:"task,block"`
}

type hclTask struct {
	Name     string     `hcl:"name,label"`
	Category string     `hcl:"category,optional"`
	Form     string     `hcl:"form,optional"`
	Date     *hclDate   `hcl:"date,block"`
	Repeat   *hclRepeat `hcl:"repeat,block"`
}

type hclDate struct {
	Type        string   `hcl:"type,optional"`
	Jour        *int     `hcl:"jour,optional"`
	Mois        *int     `hcl:"mois,optional"`
	MoisOffset  int      `hcl:"mois_offset,optional"`
	AnneeOffset int      `hcl:"annee_offset,optional"`
	JoursOffset int      `hcl:"jours_offset,optional"`
	OffsetJours *int     `hcl:"offset_jours,optional"`
	Trimestre   *int     `hcl:"trimestre,optional"`
	Acompte     int      `hcl:"acompte,optional"`
	DateA       *hclDate `hcl:"date_a,block"`
	DateB       *hclDate `hcl:"date_b,block"`
}

type hclRepeat struct {
	Frequency      string `hcl:"frequency"`
	ExcludedMonths []int  `hcl:"excluded_months,optional"`
}

// LoadRulesFile parses the HCL rule set at path.
func LoadRulesFile(path string) ([]rules.Rule, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse rules file %s: %w", path, diags)
	}
	return decodeRules(path, file)
}

// ParseRules parses an HCL rule set held in memory. filename is only used
// in error messages.
func ParseRules(filename string, src []byte) ([]rules.Rule, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse rules file %s: %w", filename, diags)
	}
	return decodeRules(filename, file)
}

func decodeRules(filename string, file *hcl.File) ([]rules.Rule, error) {
	var parsed hclRuleFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decode rules file %s: %w", filename, diags)
	}

	out := make([]rules.Rule, 0, len(parsed.Rules))
	for _, r := range parsed.Rules {
		rule, err := convertRule(r)
		if err != nil {
			return nil, fmt.Errorf("%s: rule %q: %w", filename, r.Name, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func convertRule(r *hclRule) (rules.Rule, error) {
	rule := rules.Rule{
		ID:     r.ID,
		Name:   r.Name,
		Order:  r.Order,
		Active: r.Active == nil || *r.Active,
	}
	var err error
	if rule.RootConditions, err = convertConditions(r.When); err != nil {
		return rules.Rule{}, err
	}
	for i, b := range r.Branches {
		branch, err := convertBranch(b)
		if err != nil {
			return rules.Rule{}, fmt.Errorf("branch %d: %w", i+1, err)
		}
		rule.Branches = append(rule.Branches, branch)
	}
	return rule, nil
}

func convertBranch(b *hclBranch) (rules.Branch, error) {
	conds, err := convertConditions(b.When)
	if err != nil {
		return rules.Branch{}, err
	}
	branch := rules.Branch{Conditions: conds}
	for _, t := range b.Tasks {
		tpl, err := convertTask(t)
		if err != nil {
			return rules.Branch{}, fmt.Errorf("task %q: %w", t.Name, err)
		}
		branch.TaskTemplates = append(branch.TaskTemplates, tpl)
	}
	return branch, nil
}

func convertConditions(list []*hclCondition) ([]condition.Condition, error) {
	var out []condition.Condition
	for _, c := range list {
		if !snapshot.Known(c.Field) {
			return nil, fmt.Errorf("unknown field %q", c.Field)
		}
		op := condition.Operator(c.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("unknown operator %q on field %q", c.Operator, c.Field)
		}
		value, err := expressionValue(c.Value)
		if err != nil {
			return nil, fmt.Errorf("condition on %q: %w", c.Field, err)
		}
		out = append(out, condition.Condition{Field: c.Field, Operator: op, Value: value})
	}
	return out, nil
}

func convertTask(t *hclTask) (expand.Template, error) {
	tpl := expand.Template{Name: t.Name, Category: t.Category, FormReference: t.Form}
	if t.Date != nil {
		kind := dateformula.Type(t.Date.Type)
		if !kind.Valid() {
			return expand.Template{}, fmt.Errorf("unknown date type %q", t.Date.Type)
		}
		params, err := convertParams(t.Date, false)
		if err != nil {
			return expand.Template{}, err
		}
		tpl.DateFormula = dateformula.Formula{Type: kind, Params: params}
	}
	if t.Repeat != nil {
		freq := expand.Frequency(t.Repeat.Frequency)
		if freq != expand.FrequencyMonthly && freq != expand.FrequencyQuarterly {
			return expand.Template{}, fmt.Errorf("unknown repeat frequency %q", t.Repeat.Frequency)
		}
		for _, m := range t.Repeat.ExcludedMonths {
			if m < 1 || m > 12 {
				return expand.Template{}, fmt.Errorf("excluded month %d out of range", m)
			}
		}
		tpl.Repeat = &expand.Repeat{Frequency: freq, ExcludedMonths: t.Repeat.ExcludedMonths}
	}
	return tpl, nil
}

// convertParams maps a date block. Branch blocks keep their own type so a
// cloture_conditional can pick a different formula per closing.
func convertParams(d *hclDate, branch bool) (dateformula.Params, error) {
	p := dateformula.Params{
		Jour:        d.Jour,
		Mois:        d.Mois,
		MoisOffset:  d.MoisOffset,
		AnneeOffset: d.AnneeOffset,
		JoursOffset: d.JoursOffset,
		OffsetJours: d.OffsetJours,
		Trimestre:   d.Trimestre,
		AcompteNum:  d.Acompte,
	}
	if branch {
		if d.Type != "" && !dateformula.Type(d.Type).Valid() {
			return dateformula.Params{}, fmt.Errorf("unknown date type %q", d.Type)
		}
		p.Type = dateformula.Type(d.Type)
	}
	for _, side := range []struct {
		block *hclDate
		dst   **dateformula.Params
	}{{d.DateA, &p.DateA}, {d.DateB, &p.DateB}} {
		if side.block == nil {
			continue
		}
		nested, err := convertParams(side.block, true)
		if err != nil {
			return dateformula.Params{}, err
		}
		*side.dst = &nested
	}
	if !branch {
		if err := p.Validate(); err != nil {
			return dateformula.Params{}, err
		}
	}
	return p, nil
}
