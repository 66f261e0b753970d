package protocol

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Fields holds named field values used to build a payload shape. Values may
// come from Go literals, TOML or JSON documents, so every accessor accepts
// the usual integer kinds, integral floats and numeric strings.
type Fields map[string]any

func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Only fails when f names a field outside known.
func (f Fields) Only(known ...string) error {
	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[k] = struct{}{}
	}
	var extra []string
	for k := range f {
		if _, ok := allowed[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return Constructionf(ErrUnknownField, strings.Join(extra, ","), "not part of shape (want one of %s)", strings.Join(known, ","))
}

// Int returns a required integer field.
func (f Fields) Int(name string) (int, error) {
	v, ok := f[name]
	if !ok {
		return 0, Constructionf(ErrMissingField, name, "required")
	}
	return toInt(name, v)
}

// IntOr returns the named integer or def when absent.
func (f Fields) IntOr(name string, def int) (int, error) {
	if !f.Has(name) {
		return def, nil
	}
	return f.Int(name)
}

func (f Fields) Bool(name string) (bool, error) {
	v, ok := f[name]
	if !ok {
		return false, Constructionf(ErrMissingField, name, "required")
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, Constructionf(ErrFieldTypeMismatch, name, "not a bool: %q", b)
		}
		return parsed, nil
	default:
		return false, Constructionf(ErrFieldTypeMismatch, name, "not a bool: %T", v)
	}
}

func (f Fields) BoolOr(name string, def bool) (bool, error) {
	if !f.Has(name) {
		return def, nil
	}
	return f.Bool(name)
}

func (f Fields) String(name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", Constructionf(ErrMissingField, name, "required")
	}
	s, ok := v.(string)
	if !ok {
		return "", Constructionf(ErrFieldTypeMismatch, name, "not a string: %T", v)
	}
	return s, nil
}

// Sub returns a nested table.
func (f Fields) Sub(name string) (Fields, error) {
	v, ok := f[name]
	if !ok {
		return nil, Constructionf(ErrMissingField, name, "required")
	}
	sub, ok := asFields(v)
	if !ok {
		return nil, Constructionf(ErrFieldTypeMismatch, name, "not a table: %T", v)
	}
	return sub, nil
}

// List returns a required array of tables.
func (f Fields) List(name string) ([]Fields, error) {
	v, ok := f[name]
	if !ok {
		return nil, Constructionf(ErrMissingField, name, "required")
	}
	switch items := v.(type) {
	case []Fields:
		return items, nil
	case []map[string]any:
		out := make([]Fields, len(items))
		for i, it := range items {
			out[i] = Fields(it)
		}
		return out, nil
	case []any:
		out := make([]Fields, len(items))
		for i, it := range items {
			sub, ok := asFields(it)
			if !ok {
				return nil, Constructionf(ErrFieldTypeMismatch, fmt.Sprintf("%s[%d]", name, i), "not a table: %T", it)
			}
			out[i] = sub
		}
		return out, nil
	default:
		return nil, Constructionf(ErrFieldTypeMismatch, name, "not a list: %T", v)
	}
}

// FieldEnum reads an enum member given either by name or by value.
func FieldEnum[T ~uint8](f Fields, name string, e Enum[T]) (T, error) {
	v, ok := f[name]
	if !ok {
		return 0, Constructionf(ErrMissingField, name, "required")
	}
	if s, isStr := v.(string); isStr {
		if member, found := e.Lookup(s); found {
			return member, nil
		}
	}
	n, err := toInt(name, v)
	if err != nil {
		return 0, Constructionf(ErrUnknownEnum, name, "%v is not a %s (one of %s)", v, e.Name, strings.Join(e.Names(), ","))
	}
	if n < 0 || n > math.MaxUint8 {
		return 0, Validationf(ErrOutOfRange, name, "%d does not fit a byte", n)
	}
	member := T(n)
	if err := e.Check(name, member); err != nil {
		return 0, err
	}
	return member, nil
}

// FieldFlags reads a bitmask given either as an integer or a list of names.
func FieldFlags[T ~uint8](f Fields, name string, fl Flags[T]) (T, error) {
	v, ok := f[name]
	if !ok {
		return 0, nil
	}
	var names []string
	switch items := v.(type) {
	case []string:
		names = items
	case []any:
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return 0, Constructionf(ErrFieldTypeMismatch, name, "flag names must be strings, got %T", it)
			}
			names = append(names, s)
		}
	default:
		n, err := toInt(name, v)
		if err != nil {
			return 0, err
		}
		if n < 0 || n > math.MaxUint8 {
			return 0, Validationf(ErrOutOfRange, name, "%d does not fit a byte", n)
		}
		return T(n), nil
	}
	return fl.Join(names)
}

func asFields(v any) (Fields, bool) {
	switch m := v.(type) {
	case Fields:
		return m, true
	case map[string]any:
		return Fields(m), true
	default:
		return nil, false
	}
}

func toInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, Validationf(ErrOutOfRange, name, "%d too large", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, Constructionf(ErrFieldTypeMismatch, name, "not an integer: %v", n)
		}
		return int(n), nil
	case string:
		s := strings.TrimSpace(n)
		parsed, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return 0, Constructionf(ErrFieldTypeMismatch, name, "not an integer: %q", n)
		}
		return int(parsed), nil
	default:
		return 0, Constructionf(ErrFieldTypeMismatch, name, "not an integer: %T", v)
	}
}
