// Package filter provides AIP-160 filter expression parsing for campaign
// listings.
//
// Campaign status is derived from the clock on every read, so filters are
// compiled into in-memory matchers over evaluated snapshots instead of SQL.
package filter

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Record holds the filterable fields of one campaign. Values are string,
// int64 or time.Time according to the declared field kind.
type Record map[string]any

// Matcher reports whether a record satisfies a compiled filter.
type Matcher func(Record) bool

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindTimestamp
)

// Campaign filter fields.
const (
	FieldCampaignID = "campaign_id"
	FieldOwner      = "owner"
	FieldAsset      = "asset"
	FieldStatus     = "status"
	FieldDeadline   = "deadline"
	FieldCreatedAt  = "created_at"
)

var campaignFields = map[string]fieldKind{
	FieldCampaignID: kindInt,
	FieldOwner:      kindString,
	FieldAsset:      kindString,
	FieldStatus:     kindString,
	FieldDeadline:   kindTimestamp,
	FieldCreatedAt:  kindTimestamp,
}

// CampaignDeclarations returns the field declarations for campaign filtering.
func CampaignDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent(FieldCampaignID, filtering.TypeInt),
		filtering.DeclareIdent(FieldOwner, filtering.TypeString),
		filtering.DeclareIdent(FieldAsset, filtering.TypeString),
		filtering.DeclareIdent(FieldStatus, filtering.TypeString),
		filtering.DeclareIdent(FieldDeadline, filtering.TypeTimestamp),
		filtering.DeclareIdent(FieldCreatedAt, filtering.TypeTimestamp),
	)
}

// MatchAll accepts every record.
func MatchAll(Record) bool { return true }

// ParseCampaignFilter parses an AIP-160 filter expression into a Matcher.
// An empty filter matches every campaign.
func ParseCampaignFilter(filterStr string) (Matcher, error) {
	if strings.TrimSpace(filterStr) == "" {
		return MatchAll, nil
	}

	decls, err := CampaignDeclarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	if filter.CheckedExpr == nil {
		return MatchAll, nil
	}
	return compileExpr(filter.CheckedExpr.GetExpr())
}

func compileExpr(e *expr.Expr) (Matcher, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_CallExpr:
		return compileCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func compileCall(call *expr.Expr_Call) (Matcher, error) {
	switch call.GetFunction() {
	case filtering.FunctionAnd, filtering.FunctionFuzzyAnd, "_&&_":
		return compileLogical(call.GetArgs(), true)
	case filtering.FunctionOr, "_||_":
		return compileLogical(call.GetArgs(), false)
	case filtering.FunctionNot, "-":
		if len(call.GetArgs()) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := compileExpr(call.GetArgs()[0])
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return !inner(r) }, nil
	case filtering.FunctionEquals, "_==_":
		return compileComparison(call.GetArgs(), func(c int) bool { return c == 0 })
	case filtering.FunctionNotEquals, "_!=_":
		return compileComparison(call.GetArgs(), func(c int) bool { return c != 0 })
	case filtering.FunctionLessThan, "_<_":
		return compileComparison(call.GetArgs(), func(c int) bool { return c < 0 })
	case filtering.FunctionLessEquals, "_<=_":
		return compileComparison(call.GetArgs(), func(c int) bool { return c <= 0 })
	case filtering.FunctionGreaterThan, "_>_":
		return compileComparison(call.GetArgs(), func(c int) bool { return c > 0 })
	case filtering.FunctionGreaterEquals, "_>=_":
		return compileComparison(call.GetArgs(), func(c int) bool { return c >= 0 })
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
}

func compileLogical(args []*expr.Expr, and bool) (Matcher, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("logical operator requires 2 arguments")
	}
	parts := make([]Matcher, 0, len(args))
	for _, arg := range args {
		m, err := compileExpr(arg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	if and {
		return func(r Record) bool {
			for _, m := range parts {
				if !m(r) {
					return false
				}
			}
			return true
		}, nil
	}
	return func(r Record) bool {
		for _, m := range parts {
			if m(r) {
				return true
			}
		}
		return false
	}, nil
}

func compileComparison(args []*expr.Expr, accept func(int) bool) (Matcher, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}
	kind, ok := campaignFields[field]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}
	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindString:
		want, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %s compares with a string", field)
		}
		return func(r Record) bool {
			got, ok := r[field].(string)
			return ok && accept(strings.Compare(got, want))
		}, nil
	case kindInt:
		want, ok := value.(int64)
		if !ok {
			return nil, fmt.Errorf("field %s compares with an integer", field)
		}
		return func(r Record) bool {
			got, ok := r[field].(int64)
			return ok && accept(cmp.Compare(got, want))
		}, nil
	default:
		want, err := timestampValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		return func(r Record) bool {
			got, ok := r[field].(time.Time)
			return ok && accept(got.Compare(want))
		}, nil
	}
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.GetName(), nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.GetFunction() == filtering.FunctionTimestamp && len(kind.CallExpr.GetArgs()) == 1 {
			return extractValue(kind.CallExpr.GetArgs()[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.GetFunction())
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func timestampValue(value any) (time.Time, error) {
	raw, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp must be an RFC 3339 string")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", raw)
	}
	return t.UTC(), nil
}
