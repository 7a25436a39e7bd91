package condition

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
)

// ErrMalformed is returned when wire JSON does not describe a condition.
var ErrMalformed = errors.New("malformed condition")

// Marshal encodes a condition in the backend's JSON form:
//
//	{"$and": [...]}, {"$or": [...]}
//	{"<field>": {"$eq": <value>}}
//	{"<field>": {"$ne": null}}   is not null
//	{"<field>": null}            is null
//
// A nil condition encodes as null.
func Marshal(node nt.Condition) ([]byte, error) {

	doc, err := document(node)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	return data, errors.Wrapf(err, "failed to marshal condition")
}

// Key returns the canonical text of a condition, empty for nil.
// Equal trees give equal keys.
// Panics if node holds a value the wire format cannot carry; compiled
// conditions never do.
func Key(node nt.Condition) string {
	if node == nil {
		return ""
	}
	data, err := Marshal(node)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func document(node nt.Condition) (any, error) {

	switch node := node.(type) {
	case nil:
		return nil, nil

	case nt.And:
		children, err := documents(node.Children)
		return map[string]any{"$and": children}, err

	case nt.Or:
		children, err := documents(node.Children)
		return map[string]any{"$or": children}, err

	case nt.NullCheck:
		if node.IsNull {
			return map[string]any{node.Field: nil}, nil
		}
		return map[string]any{node.Field: map[string]any{string(nt.Ne): nil}}, nil

	case nt.ComparisonNode:
		return map[string]any{node.Field: map[string]any{string(node.Op): node.Value}}, nil
	}

	return nil, errors.Wrapf(ErrUnknownNode, "%T", node)
}

func documents(nodes []nt.Condition) ([]any, error) {
	out := make([]any, len(nodes))
	for i, node := range nodes {
		doc, err := document(node)
		if err != nil {
			return nil, err
		}
		out[i] = doc
	}
	return out, nil
}

// Parse decodes the JSON form written by Marshal.
// null decodes to a nil condition.
func Parse(data []byte) (nt.Condition, error) {

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "invalid condition json")
	}
	return parseDocument(doc)
}

func parseDocument(doc any) (nt.Condition, error) {

	if doc == nil {
		return nil, nil
	}

	obj, ok := doc.(map[string]any)
	if !ok || len(obj) != 1 {
		return nil, errors.Wrapf(ErrMalformed, "expected an object with one key, got %v", doc)
	}

	for key, val := range obj {
		switch key {
		case "$and", "$or":
			children, err := parseChildren(key, val)
			if err != nil {
				return nil, err
			}
			if key == "$and" {
				return nt.And{Children: children}, nil
			}
			return nt.Or{Children: children}, nil
		}

		if strings.HasPrefix(key, "$") {
			return nil, errors.Wrapf(ErrMalformed, "unknown connector %q", key)
		}
		return parseField(key, val)
	}
	return nil, nil // unreachable
}

func parseChildren(key string, val any) ([]nt.Condition, error) {

	list, ok := val.([]any)
	if !ok || len(list) == 0 {
		return nil, errors.Wrapf(ErrMalformed, "%s needs a non-empty list", key)
	}

	children := make([]nt.Condition, len(list))
	for i, item := range list {
		child, err := parseDocument(item)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, errors.Wrapf(ErrMalformed, "%s child %d is null", key, i)
		}
		children[i] = child
	}
	return children, nil
}

func parseField(field string, val any) (nt.Condition, error) {

	if val == nil {
		return nt.NullCheck{Field: field, IsNull: true}, nil
	}

	ops, ok := val.(map[string]any)
	if !ok || len(ops) != 1 {
		return nil, errors.Wrapf(ErrMalformed, "field %q needs one operator", field)
	}

	for key, raw := range ops {
		op := nt.CompareOp(key)
		if _, known := symbols[op]; !known {
			return nil, errors.Wrapf(ErrMalformed, "unknown operator %q", key)
		}
		if raw == nil {
			if op != nt.Ne {
				return nil, errors.Wrapf(ErrMalformed, "%s null", key)
			}
			return nt.NullCheck{Field: field, IsNull: false}, nil
		}

		value, err := scalar(raw)
		if err != nil {
			return nil, err
		}
		return nt.ComparisonNode{Field: field, Op: op, Value: value}, nil
	}
	return nil, nil // unreachable
}

func scalar(raw any) (any, error) {

	switch raw := raw.(type) {
	case json.Number:
		num, err := raw.Float64()
		return num, errors.Wrapf(err, "bad number %q", raw)
	case string, bool:
		return raw, nil
	}
	return nil, errors.Wrapf(ErrMalformed, "unsupported value %v", raw)
}
