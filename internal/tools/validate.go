package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// validate checks args against s: required parameters present, no undeclared
// parameters, JSON types and enums respected.
func validate(s Schema, args map[string]interface{}) error {
	for _, p := range s.Params {
		if _, ok := args[p.Name]; p.Required && !ok {
			return &ArgumentError{Tool: s.Name, Param: p.Name, Reason: "required parameter missing"}
		}
	}

	// sorted so the reported parameter is stable
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		p, ok := s.param(name)
		if !ok {
			return &ArgumentError{Tool: s.Name, Param: name, Reason: "parameter not declared by this tool"}
		}
		v := args[name]
		if err := checkType(v, p.Type); err != nil {
			return &ArgumentError{Tool: s.Name, Param: name, Reason: err.Error()}
		}
		if len(p.Enum) > 0 && !inEnum(v, p.Enum) {
			return &ArgumentError{Tool: s.Name, Param: name, Reason: fmt.Sprintf("%v is not one of %v", v, p.Enum)}
		}
		if p.Type == Array && p.Items != "" {
			for i, item := range v.([]interface{}) {
				if err := checkType(item, p.Items); err != nil {
					return &ArgumentError{Tool: s.Name, Param: fmt.Sprintf("%s[%d]", name, i), Reason: err.Error()}
				}
			}
		}
	}
	return nil
}

func checkType(v interface{}, want ParamType) error {
	ok := false
	switch want {
	case String:
		_, ok = v.(string)
	case Number:
		ok = isNumber(v)
	case Integer:
		ok = isInteger(v)
		if ok && !inInt64Range(v) {
			return fmt.Errorf("%v is outside the 64-bit integer range", v)
		}
	case Boolean:
		_, ok = v.(bool)
	case Array:
		_, ok = v.([]interface{})
	case Object:
		_, ok = v.(map[string]interface{})
	default:
		return fmt.Errorf("unsupported parameter type %q", want)
	}
	if !ok {
		return fmt.Errorf("expected %s but got %T", want, v)
	}
	return nil
}

func isNumber(v interface{}) bool {
	switch n := v.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}

func isInteger(v interface{}) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(n)) == float64(n)
	case float64:
		return math.Trunc(n) == n && !math.IsInf(n, 0)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

// inInt64Range reports whether a whole number fits an int64 without wrapping.
func inInt64Range(v interface{}) bool {
	const limit = 1 << 63 // exact as a float64
	switch n := v.(type) {
	case float32:
		return float64(n) >= -limit && float64(n) < limit
	case float64:
		return n >= -limit && n < limit
	case uint:
		return uint64(n) <= math.MaxInt64
	case uint64:
		return n <= math.MaxInt64
	}
	return true
}

func inEnum(v interface{}, enum []string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, e := range enum {
		if s == e {
			return true
		}
	}
	return false
}

// decode copies validated arguments into a typed struct. Fields use
// mapstructure tags; optional parameters map to pointer fields.
func decode(args map[string]interface{}, out interface{}) error {
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	}
	d, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return d.Decode(args)
}
