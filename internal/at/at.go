package at

import (
	"fmt"
	"strings"
)

// At is cronlet's recurrence pattern: five independently specified
// fields, coarsest to finest. A parsed pattern always has every field
// populated — Parse fills in the defaults described in its doc
// comment.
type At struct {
	Months  Occurrence
	Days    Occurrence
	Hours   Occurrence
	Minutes Occurrence
	Seconds Occurrence
}

// fieldSpec is an explicitly-provided field, prior to default-filling.
type fieldSpec struct {
	occ Occurrence
	set bool
}

// Parse accepts the grammar described in spec §4.A:
// whitespace-separated "M=<occ>", "D=<occ>", "h=<occ>", "m=<occ>",
// "s=<occ>" tokens in any subset, where <occ> is "*", an integer, or
// a comma-separated list of integers.
//
// Unspecified coarser fields default to Every; each finer unspecified
// field defaults to First if any coarser field was explicit,
// otherwise to Every. So "h=10" means "every day, at 10:00:00", not
// "every minute during hour 10".
func Parse(s string) (At, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return At{}, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	var months, days, hours, minutes, seconds fieldSpec
	seen := map[string]bool{}

	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || value == "" {
			return At{}, fmt.Errorf("%w: malformed token %q", ErrInvalidPattern, tok)
		}
		if seen[key] {
			return At{}, fmt.Errorf("%w: duplicate key %q", ErrInvalidPattern, key)
		}
		seen[key] = true

		occ, err := parseOccurrence(value)
		if err != nil {
			return At{}, err
		}
		if key == "M" || key == "D" {
			for _, v := range occ.Values {
				if v == 0 {
					return At{}, fmt.Errorf("%w: %s value 0 is below minimum 1", ErrInvalidPattern, key)
				}
			}
		}

		switch key {
		case "M":
			if err := occ.validate("months", 12); err != nil {
				return At{}, err
			}
			months = fieldSpec{occ, true}
		case "D":
			if err := occ.validate("days", 31); err != nil {
				return At{}, err
			}
			days = fieldSpec{occ, true}
		case "h":
			if err := occ.validate("hours", 23); err != nil {
				return At{}, err
			}
			hours = fieldSpec{occ, true}
		case "m":
			if err := occ.validate("minutes", 59); err != nil {
				return At{}, err
			}
			minutes = fieldSpec{occ, true}
		case "s":
			if err := occ.validate("seconds", 59); err != nil {
				return At{}, err
			}
			seconds = fieldSpec{occ, true}
		default:
			return At{}, fmt.Errorf("%w: unrecognized key %q", ErrInvalidPattern, key)
		}
	}

	if !months.set && !days.set && !hours.set && !minutes.set && !seconds.set {
		return At{}, fmt.Errorf("%w: at least one time specifier is required", ErrInvalidPattern)
	}

	result := At{}

	if months.set {
		result.Months = months.occ
	} else {
		result.Months = Every()
	}

	if days.set {
		result.Days = days.occ
	} else if months.set {
		result.Days = First()
	} else {
		result.Days = Every()
	}

	if hours.set {
		result.Hours = hours.occ
	} else if months.set || days.set {
		result.Hours = First()
	} else {
		result.Hours = Every()
	}

	if minutes.set {
		result.Minutes = minutes.occ
	} else if months.set || days.set || hours.set {
		result.Minutes = First()
	} else {
		result.Minutes = Every()
	}

	if seconds.set {
		result.Seconds = seconds.occ
	} else if months.set || days.set || hours.set || minutes.set {
		result.Seconds = First()
	} else {
		result.Seconds = Every()
	}

	return result, nil
}

// Encode produces the canonical textual form: every field is written
// out, coarsest first, including Every ("*") fields to the left of an
// explicit field, so "h=10 m=0" encodes as "M=* D=* h=10 m=0". Fields
// holding First are elided, since Parse restores them as defaults;
// Parse never yields First for months, so Parse(Encode(at)) == at for
// every at that Parse returns.
func (a At) Encode() string {
	var out []string

	emitMonths := a.Months.Kind != KindFirst
	if emitMonths {
		if enc, ok := a.Months.encode(); ok {
			out = append(out, "M="+enc)
		}
	}

	emitDays := a.Days.Kind != KindFirst
	if emitDays {
		if enc, ok := a.Days.encode(); ok {
			out = append(out, "D="+enc)
		}
	}

	emitHours := a.Hours.Kind != KindFirst
	if emitHours {
		if enc, ok := a.Hours.encode(); ok {
			out = append(out, "h="+enc)
		}
	}

	emitMinutes := a.Minutes.Kind != KindFirst
	if emitMinutes {
		if enc, ok := a.Minutes.encode(); ok {
			out = append(out, "m="+enc)
		}
	}

	emitSeconds := a.Seconds.Kind != KindFirst
	if emitSeconds {
		if enc, ok := a.Seconds.encode(); ok {
			out = append(out, "s="+enc)
		}
	}

	return strings.Join(out, " ")
}

// String implements fmt.Stringer as the canonical encoding.
func (a At) String() string {
	return a.Encode()
}

func (a At) Equal(other At) bool {
	return a.Months.Equal(other.Months) &&
		a.Days.Equal(other.Days) &&
		a.Hours.Equal(other.Hours) &&
		a.Minutes.Equal(other.Minutes) &&
		a.Seconds.Equal(other.Seconds)
}
