package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive numeric bound checked on both encode and decode.
type Range struct {
	Min int
	Max int
}

// Check fails with a validation error when v lies outside r.
func (r Range) Check(field string, v int) error {
	if v < r.Min || v > r.Max {
		return Validationf(ErrOutOfRange, field, "%d outside [%d,%d]", v, r.Min, r.Max)
	}
	return nil
}

// Enum is a closed set of named one-byte (or narrower) values.
type Enum[T ~uint8] struct {
	Name   string
	Values map[T]string
}

// Check rejects values outside the set.
func (e Enum[T]) Check(field string, v T) error {
	if _, ok := e.Values[v]; !ok {
		return Validationf(ErrUnknownEnum, field, "0x%02X is not a %s", uint8(v), e.Name)
	}
	return nil
}

func (e Enum[T]) String(v T) string {
	if name, ok := e.Values[v]; ok {
		return name
	}
	return fmt.Sprintf("%s(0x%02X)", e.Name, uint8(v))
}

// Lookup resolves a member by name, case insensitive.
func (e Enum[T]) Lookup(name string) (T, bool) {
	name = strings.TrimSpace(name)
	for v, n := range e.Values {
		if strings.EqualFold(n, name) {
			return v, true
		}
	}
	return 0, false
}

// Names lists member names sorted by value.
func (e Enum[T]) Names() []string {
	vals := make([]T, 0, len(e.Values))
	for v := range e.Values {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = e.Values[v]
	}
	return out
}

// Flags names the bits of a bitmask. Any combination of bits is valid,
// including zero.
type Flags[T ~uint8] struct {
	Name string
	Bits []FlagBit[T]
}

type FlagBit[T ~uint8] struct {
	Bit  T
	Name string
}

// Split returns the names of the set bits; unnamed bits are rendered in hex.
func (f Flags[T]) Split(v T) []string {
	out := make([]string, 0, len(f.Bits))
	var known T
	for _, b := range f.Bits {
		known |= b.Bit
		if v&b.Bit != 0 {
			out = append(out, b.Name)
		}
	}
	if rest := v &^ known; rest != 0 {
		out = append(out, fmt.Sprintf("0x%02X", uint8(rest)))
	}
	return out
}

// Join builds a mask from bit names.
func (f Flags[T]) Join(names []string) (T, error) {
	var v T
	for _, name := range names {
		if n, err := strconv.ParseUint(strings.TrimSpace(name), 0, 8); err == nil {
			v |= T(n)
			continue
		}
		found := false
		for _, b := range f.Bits {
			if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
				v |= b.Bit
				found = true
				break
			}
		}
		if !found {
			return 0, Constructionf(ErrUnknownEnum, f.Name, "unknown flag %q", name)
		}
	}
	return v, nil
}
