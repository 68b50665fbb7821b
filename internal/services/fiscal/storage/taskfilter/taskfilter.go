// Package taskfilter translates AIP-160 filters over run tasks into SQL.
//
// Supported fields are name, category and form_reference (strings) and
// due_date (timestamp). For example:
//
//	category = "TVA" AND due_date < timestamp("2024-07-01T00:00:00Z")
package taskfilter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ErrInvalid wraps every parse or translation failure.
var ErrInvalid = errors.New("invalid task filter")

// Condition is a SQL WHERE fragment with positional parameters. The zero
// value matches every task.
type Condition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition matches every task.
func (c Condition) Empty() bool {
	return c.Clause == ""
}

type column struct {
	name      string
	timestamp bool
}

var columns = map[string]column{
	"name":           {name: "name"},
	"category":       {name: "category"},
	"form_reference": {name: "form_reference"},
	"due_date":       {name: "due_date", timestamp: true},
}

func declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("category", filtering.TypeString),
		filtering.DeclareIdent("form_reference", filtering.TypeString),
		filtering.DeclareIdent("due_date", filtering.TypeTimestamp),
	)
}

// Parse parses a filter expression. An empty expression yields the zero
// Condition.
func Parse(filter string) (Condition, error) {
	if strings.TrimSpace(filter) == "" {
		return Condition{}, nil
	}
	decls, err := declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cond, err := translate(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cond, nil
}

var comparisons = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

func translate(e *expr.Expr) (Condition, error) {
	call := e.GetCallExpr()
	if call == nil {
		return Condition{}, fmt.Errorf("unsupported expression %T", e.GetExprKind())
	}
	switch fn := call.GetFunction(); fn {
	case filtering.FunctionAnd, filtering.FunctionOr:
		return join(fn, call.GetArgs())
	case filtering.FunctionNot:
		if len(call.GetArgs()) != 1 {
			return Condition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translate(call.GetArgs()[0])
		if err != nil {
			return Condition{}, err
		}
		return Condition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	default:
		op, ok := comparisons[fn]
		if !ok {
			return Condition{}, fmt.Errorf("unsupported function %s", fn)
		}
		return compare(op, call.GetArgs())
	}
}

func join(fn string, args []*expr.Expr) (Condition, error) {
	if len(args) < 2 {
		return Condition{}, fmt.Errorf("%s requires at least 2 arguments", fn)
	}
	parts := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		c, err := translate(arg)
		if err != nil {
			return Condition{}, err
		}
		parts = append(parts, c.Clause)
		params = append(params, c.Params...)
	}
	return Condition{
		Clause: "(" + strings.Join(parts, " "+fn+" ") + ")",
		Params: params,
	}, nil
}

func compare(op string, args []*expr.Expr) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return Condition{}, fmt.Errorf("left side of %s must be a field", op)
	}
	col, ok := columns[ident.GetName()]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field %s", ident.GetName())
	}

	var value any
	var err error
	if col.timestamp {
		value, err = timestampMillis(args[1])
	} else {
		value, err = stringConstant(args[1])
	}
	if err != nil {
		return Condition{}, fmt.Errorf("field %s: %w", ident.GetName(), err)
	}
	return Condition{Clause: fmt.Sprintf("%s %s ?", col.name, op), Params: []any{value}}, nil
}

func stringConstant(e *expr.Expr) (string, error) {
	c := e.GetConstExpr()
	if c == nil {
		return "", fmt.Errorf("expected a string constant")
	}
	s, ok := c.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return "", fmt.Errorf("expected a string constant")
	}
	return s.StringValue, nil
}

// timestampMillis accepts timestamp("...") calls and bare RFC 3339 strings.
func timestampMillis(e *expr.Expr) (int64, error) {
	if call := e.GetCallExpr(); call != nil {
		if call.GetFunction() != filtering.FunctionTimestamp || len(call.GetArgs()) != 1 {
			return 0, fmt.Errorf("unsupported function %s in value position", call.GetFunction())
		}
		e = call.GetArgs()[0]
	}
	raw, err := stringConstant(e)
	if err != nil {
		return 0, fmt.Errorf("expected a timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", raw)
	}
	return t.UTC().UnixMilli(), nil
}
