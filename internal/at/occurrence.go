// Package at implements cronlet's recurrence model: a compact,
// hierarchical time-of-run specifier ("At") and the solver that
// computes the next absolute moment matching one.
package at

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPattern is returned by Parse for any malformed or
// out-of-range recurrence pattern.
var ErrInvalidPattern = errors.New("invalid recurrence pattern")

// Kind discriminates the four shapes an Occurrence can take.
type Kind uint8

const (
	KindEvery Kind = iota
	KindFirst
	KindOnce
	KindMultiple
)

// Occurrence is a per-field selector for one component of an At
// pattern (months, days, hours, minutes, or seconds).
//
// Values holds the explicit value(s) for KindOnce (len 1) and
// KindMultiple (len >= 1); it is empty for KindEvery and KindFirst.
type Occurrence struct {
	Kind   Kind
	Values []uint8
}

func Every() Occurrence { return Occurrence{Kind: KindEvery} }
func First() Occurrence { return Occurrence{Kind: KindFirst} }
func Once(v uint8) Occurrence {
	return Occurrence{Kind: KindOnce, Values: []uint8{v}}
}
func Multiple(vs []uint8) Occurrence {
	return Occurrence{Kind: KindMultiple, Values: append([]uint8(nil), vs...)}
}

func (o Occurrence) Equal(other Occurrence) bool {
	if o.Kind != other.Kind {
		return false
	}
	if len(o.Values) != len(other.Values) {
		return false
	}
	for i := range o.Values {
		if o.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}

// parseOccurrence parses the "*"/"N"/"N,M,..." grammar for a single
// field. It does not range-check — that is the caller's job, since
// the valid range differs per field.
func parseOccurrence(raw string) (Occurrence, error) {
	if raw == "*" {
		return Every(), nil
	}
	if !strings.Contains(raw, ",") {
		v, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return Occurrence{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidPattern, raw)
		}
		return Once(uint8(v)), nil
	}
	parts := strings.Split(raw, ",")
	values := make([]uint8, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Occurrence{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidPattern, p)
		}
		values = append(values, uint8(v))
	}
	return Multiple(values), nil
}

// encode renders an Occurrence back to its textual form. It returns
// false for KindFirst, which has no standalone textual form; At.Encode
// elides such fields from the canonical encoding.
func (o Occurrence) encode() (string, bool) {
	switch o.Kind {
	case KindFirst:
		return "", false
	case KindEvery:
		return "*", true
	case KindOnce:
		return strconv.Itoa(int(o.Values[0])), true
	case KindMultiple:
		parts := make([]string, len(o.Values))
		for i, v := range o.Values {
			parts[i] = strconv.Itoa(int(v))
		}
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}

func (o Occurrence) validate(name string, max uint8) error {
	switch o.Kind {
	case KindFirst, KindEvery:
		return nil
	case KindOnce:
		if o.Values[0] > max {
			return fmt.Errorf("%w: %s value %d exceeds maximum %d", ErrInvalidPattern, name, o.Values[0], max)
		}
		return nil
	case KindMultiple:
		for _, v := range o.Values {
			if v > max {
				return fmt.Errorf("%w: %s value %d exceeds maximum %d", ErrInvalidPattern, name, v, max)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown occurrence kind for %s", ErrInvalidPattern, name)
	}
}
