package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"nmc-mcp/internal/api"
)

func isScalar(t string) bool {
	switch t {
	case api.TypeString, api.TypeInteger, api.TypeNumber, api.TypeBoolean:
		return true
	}
	return false
}

func isKnownType(t string) bool {
	return isScalar(t) || t == api.TypeArray || t == api.TypeObject
}

func validateDescriptor(desc api.ToolDescriptor) error {
	fail := func(format string, args ...interface{}) error {
		return &api.RegistrationError{Name: desc.Name, Message: fmt.Sprintf(format, args...)}
	}

	switch {
	case desc.Name == "":
		return fail("name is empty")
	case !toolNamePattern.MatchString(desc.Name):
		return fail("name must be 1-64 characters of letters, digits, '_', '-' or '.'")
	case desc.Handler == nil:
		return fail("handler is nil")
	}

	seen := make(map[string]bool, len(desc.Parameters))
	for _, p := range desc.Parameters {
		switch {
		case p.Name == "":
			return fail("parameter with empty name")
		case seen[p.Name]:
			return fail("parameter %q declared twice", p.Name)
		case !isKnownType(p.Type):
			return fail("parameter %q has unknown type %q", p.Name, p.Type)
		case len(p.Enum) > 0 && !isScalar(p.Type):
			return fail("parameter %q: enum is only allowed on scalar types", p.Name)
		case p.ItemType != "" && p.Type != api.TypeArray:
			return fail("parameter %q: item type is only allowed on arrays", p.Name)
		case p.ItemType != "" && !isScalar(p.ItemType):
			return fail("parameter %q has unsupported item type %q", p.Name, p.ItemType)
		}
		seen[p.Name] = true

		if p.Default != nil {
			if p.Required {
				return fail("parameter %q is required and cannot have a default", p.Name)
			}
			if _, err := coerce(p, p.Default); err != nil {
				return fail("parameter %q has an invalid default: %v", p.Name, err)
			}
		}
	}
	return nil
}

// validateArgs checks raw against the schema and returns normalized
// arguments: integers become int, numbers float64, arrays []interface{}, and
// missing optional parameters with a default take that default.
func validateArgs(desc api.ToolDescriptor, raw map[string]interface{}) (api.Args, error) {
	out := make(api.Args, len(desc.Parameters))

	for _, p := range desc.Parameters {
		v, present := raw[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, api.NewValidationError(p.Name, "is required")
			}
			if p.Default != nil {
				def, _ := coerce(p, p.Default)
				out[p.Name] = def
			}
			continue
		}
		normalized, err := coerce(p, v)
		if err != nil {
			return nil, &api.ValidationError{Field: p.Name, Message: err.Error()}
		}
		out[p.Name] = normalized
	}

	unknown := make([]string, 0)
	for name := range raw {
		if _, ok := desc.Parameter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, api.NewValidationError(unknown[0], "unknown argument for tool %s", desc.Name)
	}
	return out, nil
}

// coerce checks v against p's type, enum and item type.
func coerce(p api.ParameterMetadata, v interface{}) (interface{}, error) {
	if p.Type == api.TypeArray {
		return coerceArray(p, v)
	}
	if p.Type == api.TypeObject {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("must be an object, got %s", describe(v))
		}
		return obj, nil
	}

	normalized, err := coerceScalar(p.Type, v)
	if err != nil {
		return nil, err
	}
	if len(p.Enum) > 0 {
		s := fmt.Sprint(normalized)
		for _, allowed := range p.Enum {
			if s == allowed {
				return normalized, nil
			}
		}
		return nil, fmt.Errorf("must be one of %v, got %q", p.Enum, s)
	}
	return normalized, nil
}

func coerceArray(p api.ParameterMetadata, v interface{}) (interface{}, error) {
	var items []interface{}
	switch a := v.(type) {
	case []interface{}:
		items = a
	case []string:
		items = make([]interface{}, len(a))
		for i, s := range a {
			items[i] = s
		}
	default:
		return nil, fmt.Errorf("must be an array, got %s", describe(v))
	}
	if p.ItemType == "" {
		return items, nil
	}

	out := make([]interface{}, len(items))
	for i, item := range items {
		normalized, err := coerceScalar(p.ItemType, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = normalized
	}
	return out, nil
}

func coerceScalar(typ string, v interface{}) (interface{}, error) {
	switch typ {
	case api.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("must be a string, got %s", describe(v))

	case api.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("must be a boolean, got %s", describe(v))

	case api.TypeInteger:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) <= 1<<53 {
				return int(n), nil
			}
		case json.Number:
			if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
				return int(i), nil
			}
		}
		return nil, fmt.Errorf("must be an integer, got %s", describe(v))

	case api.TypeNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		}
		return nil, fmt.Errorf("must be a number, got %s", describe(v))
	}
	return nil, fmt.Errorf("unsupported type %q", typ)
}

// describe names the JSON type of v for error messages.
func describe(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", x)
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return fmt.Sprintf("number %v", x)
	case []interface{}, []string:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
