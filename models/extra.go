package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Extra holds the top-level fields a client sent that the typed model does
// not declare. It is stored inline in the document and merged back into the
// JSON form on the way out.
type Extra map[string]any

// ValidateFieldName rejects names the document store would interpret as
// operators or paths.
func ValidateFieldName(name string) error {
	if name == "" || strings.HasPrefix(name, "$") || strings.Contains(name, ".") {
		return fmt.Errorf("%w: field name %q is not allowed", ErrInvalidInput, name)
	}
	return nil
}

func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		keys[name] = struct{}{}
	}
	return keys
}

func splitExtra(data []byte, known map[string]struct{}) (Extra, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var extra Extra
	for key, value := range raw {
		if _, ok := known[key]; ok {
			continue
		}
		if err := ValidateFieldName(key); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, err
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[key] = v
	}
	return extra, nil
}

func mergeExtra(base []byte, extra Extra) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, taken := merged[key]; taken {
			continue
		}
		raw, err := json.Marshal(plain(value))
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}

// plain turns BSON containers decoded from the store into maps and slices
// that encode as ordinary JSON objects and arrays.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case primitive.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case primitive.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	}
	return v
}

func plainMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = plain(v)
	}
	return out
}

func plainSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = plain(v)
	}
	return out
}
