package rulefile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/condition"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/dateformula"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/expand"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/rules"
	"github.com/zclconf/go-cty/cty"
)

// FormatRules renders list as an HCL rule set that ParseRules reads back.
func FormatRules(list []rules.Rule) ([]byte, error) {
	file := hclwrite.NewEmptyFile()
	body := file.Body()
	for i, rule := range list {
		if i > 0 {
			body.AppendNewline()
		}
		if err := writeRule(body.AppendNewBlock("rule", []string{rule.Name}).Body(), rule); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
	}
	return hclwrite.Format(file.Bytes()), nil
}

func writeRule(body *hclwrite.Body, rule rules.Rule) error {
	if rule.ID != "" {
		body.SetAttributeValue("id", cty.StringVal(rule.ID))
	}
	body.SetAttributeValue("order", cty.NumberIntVal(int64(rule.Order)))
	if !rule.Active {
		body.SetAttributeValue("active", cty.False)
	}
	if err := writeConditions(body, rule.RootConditions); err != nil {
		return err
	}
	for _, branch := range rule.Branches {
		b := body.AppendNewBlock("branch", nil).Body()
		if err := writeConditions(b, branch.Conditions); err != nil {
			return err
		}
		for _, tpl := range branch.TaskTemplates {
			writeTask(b.AppendNewBlock("task", []string{tpl.Name}).Body(), tpl)
		}
	}
	return nil
}

func writeConditions(body *hclwrite.Body, list []condition.Condition) error {
	for _, c := range list {
		when := body.AppendNewBlock("when", nil).Body()
		when.SetAttributeValue("field", cty.StringVal(c.Field))
		when.SetAttributeValue("operator", cty.StringVal(string(c.Operator)))
		if c.Value == nil {
			continue
		}
		val, err := nativeToCty(c.Value)
		if err != nil {
			return fmt.Errorf("condition on %q: %w", c.Field, err)
		}
		when.SetAttributeValue("value", val)
	}
	return nil
}

func writeTask(body *hclwrite.Body, tpl expand.Template) {
	if tpl.Category != "" {
		body.SetAttributeValue("category", cty.StringVal(tpl.Category))
	}
	if tpl.FormReference != "" {
		body.SetAttributeValue("form", cty.StringVal(tpl.FormReference))
	}
	if tpl.DateFormula.Type != "" {
		date := body.AppendNewBlock("date", nil).Body()
		date.SetAttributeValue("type", cty.StringVal(string(tpl.DateFormula.Type)))
		writeParams(date, tpl.DateFormula.Params)
	}
	if tpl.Repeat != nil {
		repeat := body.AppendNewBlock("repeat", nil).Body()
		repeat.SetAttributeValue("frequency", cty.StringVal(string(tpl.Repeat.Frequency)))
		if len(tpl.Repeat.ExcludedMonths) > 0 {
			months := make([]cty.Value, len(tpl.Repeat.ExcludedMonths))
			for i, m := range tpl.Repeat.ExcludedMonths {
				months[i] = cty.NumberIntVal(int64(m))
			}
			repeat.SetAttributeValue("excluded_months", cty.TupleVal(months))
		}
	}
}

func writeParams(body *hclwrite.Body, p dateformula.Params) {
	setOptional := func(name string, v *int) {
		if v != nil {
			body.SetAttributeValue(name, cty.NumberIntVal(int64(*v)))
		}
	}
	setNonZero := func(name string, v int) {
		if v != 0 {
			body.SetAttributeValue(name, cty.NumberIntVal(int64(v)))
		}
	}
	setOptional("jour", p.Jour)
	setOptional("mois", p.Mois)
	setNonZero("mois_offset", p.MoisOffset)
	setNonZero("annee_offset", p.AnneeOffset)
	setNonZero("jours_offset", p.JoursOffset)
	setOptional("offset_jours", p.OffsetJours)
	setOptional("trimestre", p.Trimestre)
	setNonZero("acompte", p.AcompteNum)

	for _, side := range []struct {
		name   string
		params *dateformula.Params
	}{{"date_a", p.DateA}, {"date_b", p.DateB}} {
		if side.params == nil {
			continue
		}
		nested := body.AppendNewBlock(side.name, nil).Body()
		if side.params.Type != "" {
			nested.SetAttributeValue("type", cty.StringVal(string(side.params.Type)))
		}
		writeParams(nested, *side.params)
	}
}
