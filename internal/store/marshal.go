package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/asngen/internal/ir"
)

// marshalItem converts an item to canonical JSON TEXT for storage.
func marshalItem(item ir.Item) (string, error) {
	data, err := ir.MarshalCanonical(item)
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}
	return string(data), nil
}

// marshalConstraints converts bound constraint values to canonical JSON TEXT.
func marshalConstraints(c map[string]string) (string, error) {
	if c == nil {
		c = map[string]string{}
	}
	data, err := ir.MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("marshal constraints: %w", err)
	}
	return string(data), nil
}

// marshalFoundValues converts found values to canonical JSON TEXT.
func marshalFoundValues(found map[string][]string) (string, error) {
	obj := make(map[string]any, len(found))
	for k, vs := range found {
		obj[k] = vs
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal found values: %w", err)
	}
	return string(data), nil
}

// marshalRules converts the rule name list to canonical JSON TEXT.
func marshalRules(rules []string) (string, error) {
	if rules == nil {
		rules = []string{}
	}
	data, err := ir.MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(data), nil
}

// Canonical JSON is plain JSON, so reading it back needs no special decoder.

func unmarshalItem(data string) (ir.Item, error) {
	item := ir.Item{}
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return item, nil
}

func unmarshalConstraints(data string) (map[string]string, error) {
	out := map[string]string{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal constraints: %w", err)
	}
	return out, nil
}

func unmarshalFoundValues(data string) (map[string][]string, error) {
	var out map[string][]string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal found values: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func unmarshalRules(data string) ([]string, error) {
	out := []string{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return out, nil
}
