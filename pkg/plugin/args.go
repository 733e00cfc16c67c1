package plugin

import (
	"fmt"
	"math"
)

// Args are the named arguments of a MethodCall. Numbers may arrive as any
// Go integer type or as float64 when decoded from JSON.
type Args map[string]any

// ArgError reports a missing or mistyped argument.
type ArgError struct {
	Key    string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %q %s", e.Key, e.Reason)
}

func missingArg(key string) error { return &ArgError{Key: key, Reason: "is required"} }

func badArg(key string, v any, want string) error {
	return &ArgError{Key: key, Reason: fmt.Sprintf("must be %s, got %T", want, v)}
}

func (a Args) present(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a Args) String(key string) (string, error) {
	if !a.present(key) {
		return "", missingArg(key)
	}
	s, ok := a[key].(string)
	if !ok {
		return "", badArg(key, a[key], "a string")
	}
	return s, nil
}

// OptString returns nil when key is absent or null.
func (a Args) OptString(key string) (*string, error) {
	if !a.present(key) {
		return nil, nil
	}
	s, err := a.String(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a Args) Int64(key string) (int64, error) {
	if !a.present(key) {
		return 0, missingArg(key)
	}
	n, ok := toInt64(a[key])
	if !ok {
		return 0, badArg(key, a[key], "an integer")
	}
	return n, nil
}

func (a Args) OptInt64(key string) (*int64, error) {
	if !a.present(key) {
		return nil, nil
	}
	n, err := a.Int64(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (a Args) Int(key string) (int, error) {
	n, err := a.Int64(key)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, &ArgError{Key: key, Reason: "is out of range"}
	}
	return int(n), nil
}

// Bool returns def when key is absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	if !a.present(key) {
		return def, nil
	}
	b, ok := a[key].(bool)
	if !ok {
		return false, badArg(key, a[key], "a boolean")
	}
	return b, nil
}

// Color accepts both unsigned ARGB values and their signed 32-bit form.
func (a Args) Color(key string) (uint32, error) {
	n, err := a.Int64(key)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxUint32 {
		return 0, &ArgError{Key: key, Reason: "is not a 32-bit ARGB color"}
	}
	return uint32(n), nil
}

func (a Args) Ints(key string) ([]int, error) {
	if !a.present(key) {
		return nil, nil
	}
	switch list := a[key].(type) {
	case []int:
		return list, nil
	case []any:
		out := make([]int, len(list))
		for i, v := range list {
			n, ok := toInt64(v)
			if !ok || n < math.MinInt32 || n > math.MaxInt32 {
				return nil, &ArgError{Key: fmt.Sprintf("%s[%d]", key, i), Reason: "must be an integer"}
			}
			out[i] = int(n)
		}
		return out, nil
	}
	return nil, badArg(key, a[key], "a list of integers")
}

// Map returns nil when key is absent.
func (a Args) Map(key string) (Args, error) {
	if !a.present(key) {
		return nil, nil
	}
	switch m := a[key].(type) {
	case Args:
		return m, nil
	case map[string]any:
		return Args(m), nil
	}
	return nil, badArg(key, a[key], "a map")
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
