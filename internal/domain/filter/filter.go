// Package filter implements the metadata predicate language used to
// constrain similarity queries: comparison and membership operators on
// metadata fields combined with $and/$or.
package filter

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/meridia-cloud/filedex/internal/domain"
)

// Op is a comparison operator in a filter clause.
type Op string

// Supported clause operators.
const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
	OpNin Op = "$nin"
)

// Predicate is a recursively defined filter: a comparison clause or a
// boolean combination of sub-predicates.
type Predicate interface {
	// Matches evaluates the predicate against a record's metadata mapping.
	// Field references resolve against metadata only, never the vector or id.
	Matches(meta map[string]any) bool
}

// Clause compares one metadata field against an operand.
type Clause struct {
	Field   string
	Op      Op
	Operand any
}

// And requires every child predicate to match. Short-circuits left to right.
type And struct {
	Children []Predicate
}

// Or requires at least one child predicate to match. Short-circuits left to right.
type Or struct {
	Children []Predicate
}

// Parse validates a raw JSON-shaped filter and builds the predicate tree.
// Shape errors (unknown $-operator, non-array $and operand) are hard errors
// so the caller can distinguish "no results" from "invalid filter".
//
// Accepted shapes:
//
//	{"field": literal}              implicit $eq
//	{"field": {"$op": operand}}     explicit operator
//	{"$and": [filter, ...]}         conjunction
//	{"$or": [filter, ...]}          disjunction
//
// Multiple keys in a single object combine as an implicit $and.
func Parse(raw map[string]any) (Predicate, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty filter: %w", domain.ErrInvalidFilter)
	}

	preds := make([]Predicate, 0, len(raw))
	for _, key := range sortedKeys(raw) {
		p, err := parseEntry(key, raw[key])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Children: preds}, nil
}

func parseEntry(key string, value any) (Predicate, error) {
	if !strings.HasPrefix(key, "$") {
		return parseClause(key, value)
	}

	switch key {
	case "$and", "$or":
		children, err := parseGroup(key, value)
		if err != nil {
			return nil, err
		}
		if key == "$and" {
			return And{Children: children}, nil
		}
		return Or{Children: children}, nil
	default:
		return nil, fmt.Errorf("unknown operator %q: %w", key, domain.ErrInvalidFilter)
	}
}

func parseGroup(key string, value any) ([]Predicate, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s operand must be an array: %w", key, domain.ErrInvalidFilter)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s operand must not be empty: %w", key, domain.ErrInvalidFilter)
	}

	children := make([]Predicate, 0, len(items))
	for i, item := range items {
		sub, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a filter object: %w", key, i, domain.ErrInvalidFilter)
		}
		p, err := Parse(sub)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return children, nil
}

func parseClause(field string, value any) (Predicate, error) {
	opMap, ok := value.(map[string]any)
	if !ok {
		// Bare literal is an implicit equality.
		return Clause{Field: field, Op: OpEq, Operand: value}, nil
	}

	if len(opMap) != 1 {
		return nil, fmt.Errorf("field %q must have exactly one operator, got %d: %w",
			field, len(opMap), domain.ErrInvalidFilter)
	}

	for rawOp, operand := range opMap {
		op := Op(rawOp)
		switch op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			return Clause{Field: field, Op: op, Operand: operand}, nil
		case OpIn, OpNin:
			if _, ok := operand.([]any); !ok {
				return nil, fmt.Errorf("%s operand for field %q must be an array: %w",
					op, field, domain.ErrInvalidFilter)
			}
			return Clause{Field: field, Op: op, Operand: operand}, nil
		default:
			return nil, fmt.Errorf("unknown operator %q for field %q: %w",
				rawOp, field, domain.ErrInvalidFilter)
		}
	}
	return nil, fmt.Errorf("field %q has no operator: %w", field, domain.ErrInvalidFilter)
}

// Matches implements Predicate.
func (c Clause) Matches(meta map[string]any) bool {
	value, present := meta[c.Field]

	switch c.Op {
	case OpEq:
		return present && valueEqual(value, c.Operand)
	case OpNe:
		// A missing field satisfies the negative condition.
		return !present || !valueEqual(value, c.Operand)
	case OpGt, OpGte, OpLt, OpLte:
		if !present {
			return false
		}
		return compareNumeric(c.Op, value, c.Operand)
	case OpIn:
		return present && contains(c.Operand, value)
	case OpNin:
		return !present || !contains(c.Operand, value)
	}
	return false
}

// Matches implements Predicate.
func (a And) Matches(meta map[string]any) bool {
	for _, child := range a.Children {
		if !child.Matches(meta) {
			return false
		}
	}
	return true
}

// Matches implements Predicate.
func (o Or) Matches(meta map[string]any) bool {
	for _, child := range o.Children {
		if child.Matches(meta) {
			return true
		}
	}
	return false
}

// compareNumeric evaluates an ordering operator. Non-numeric values on
// either side degrade to "no match" rather than failing the query.
func compareNumeric(op Op, value, operand any) bool {
	v, okV := toFloat(value)
	o, okO := toFloat(operand)
	if !okV || !okO {
		return false
	}
	switch op {
	case OpGt:
		return v > o
	case OpGte:
		return v >= o
	case OpLt:
		return v < o
	case OpLte:
		return v <= o
	}
	return false
}

func contains(operand, value any) bool {
	items, ok := operand.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if valueEqual(value, item) {
			return true
		}
	}
	return false
}

// valueEqual compares by value with numeric coercion, so a metadata int
// equals a JSON-decoded float of the same magnitude. Non-comparable values
// (JSON arrays and objects) degrade to "no match" rather than panicking.
func valueEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || tb == nil {
		return a == b
	}
	if !ta.Comparable() || !tb.Comparable() {
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic parse order for implicit conjunctions.
	sort.Strings(keys)
	return keys
}
