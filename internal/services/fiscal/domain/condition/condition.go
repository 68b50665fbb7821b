// Package condition evaluates rule predicates against an entity snapshot.
//
// Evaluation is total: unknown operators, unknown fields and type mismatches
// evaluate to false instead of returning an error, so one misconfigured
// condition only disables the rule or branch that carries it.
package condition

import (
	"strconv"
	"strings"
)

// Operator names a comparison applied to a snapshot field.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpGT         Operator = "gt"
	OpGTE        Operator = "gte"
	OpLT         Operator = "lt"
	OpLTE        Operator = "lte"
	OpIsTrue     Operator = "is_true"
	OpIsFalse    Operator = "is_false"
	OpIsSet      Operator = "is_set"
	OpIsNotSet   Operator = "is_not_set"
	OpStartsWith Operator = "starts_with"
)

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpIn, OpNotIn, OpGT, OpGTE, OpLT, OpLTE,
		OpIsTrue, OpIsFalse, OpIsSet, OpIsNotSet, OpStartsWith:
		return true
	}
	return false
}

// Condition is one predicate over a named snapshot field.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Fields resolves snapshot attributes by name.
type Fields interface {
	Lookup(name string) (any, bool)
}

// All reports whether every condition holds. An empty list holds.
func All(fields Fields, conditions []Condition) bool {
	for _, c := range conditions {
		if !Evaluate(fields, c) {
			return false
		}
	}
	return true
}

// Evaluate applies the condition operator to the named field.
func Evaluate(fields Fields, c Condition) bool {
	if fields == nil {
		return false
	}
	actual, present := fields.Lookup(c.Field)

	switch c.Operator {
	case OpEquals:
		return present && equal(actual, c.Value)
	case OpNotEquals:
		return !present || !equal(actual, c.Value)
	case OpIn:
		list, ok := c.Value.([]any)
		return ok && present && contains(list, actual)
	case OpNotIn:
		list, ok := c.Value.([]any)
		return ok && (!present || !contains(list, actual))
	case OpGT, OpGTE, OpLT, OpLTE:
		if !present {
			return false
		}
		return compare(c.Operator, actual, c.Value)
	case OpIsTrue:
		b, ok := actual.(bool)
		return present && ok && b
	case OpIsFalse:
		b, ok := actual.(bool)
		return present && ok && !b
	case OpIsSet:
		return isSet(actual, present)
	case OpIsNotSet:
		return !isSet(actual, present)
	case OpStartsWith:
		s, ok := actual.(string)
		prefix, okPrefix := c.Value.(string)
		return present && ok && okPrefix && strings.HasPrefix(s, prefix)
	default:
		return false
	}
}

func isSet(actual any, present bool) bool {
	if !present || actual == nil {
		return false
	}
	if s, ok := actual.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func contains(list []any, actual any) bool {
	for _, candidate := range list {
		if equal(actual, candidate) {
			return true
		}
	}
	return false
}

func equal(actual, expected any) bool {
	if a, ok := toFloat(actual); ok {
		e, ok := expectedNumber(expected)
		return ok && a == e
	}
	switch a := actual.(type) {
	case string:
		e, ok := expected.(string)
		return ok && a == e
	case bool:
		e, ok := expected.(bool)
		return ok && a == e
	default:
		return false
	}
}

// expectedNumber reads a condition value against a numeric field. Numeric
// strings such as "25" count as numbers.
func expectedNumber(expected any) (float64, bool) {
	if e, ok := toFloat(expected); ok {
		return e, true
	}
	s, ok := expected.(string)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func compare(op Operator, actual, expected any) bool {
	a, ok := toFloat(actual)
	if !ok {
		return false
	}
	e, ok := expectedNumber(expected)
	if !ok {
		return false
	}
	switch op {
	case OpGT:
		return a > e
	case OpGTE:
		return a >= e
	case OpLT:
		return a < e
	case OpLTE:
		return a <= e
	default:
		return false
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
