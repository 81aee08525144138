package at

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoSuchDate is returned by NextUpcoming when the combined
// (month, day) an At requests cannot be realized within a short
// forward search window (e.g. "M=2 D=30").
var ErrNoSuchDate = errors.New("no such date satisfies the recurrence pattern")

// NextUpcoming returns the smallest instant t >= after at which all
// five fields of at match, truncated to whole seconds. Nanoseconds of
// after are not consulted; the result always has a zero nanosecond
// component.
//
// The algorithm walks from the finest adjustable field (seconds) to
// the coarsest (months), rounding each one up to the next matching
// value and carrying into the next coarser field on overflow. Any
// carry that changes an already-resolved finer field forces a
// recursive re-solve from the top, since fixing hours, for instance,
// can itself roll the day over.
func NextUpcoming(after time.Time, a At) (time.Time, error) {
	next := after

	next, err := resolveSeconds(next, a.Seconds)
	if err != nil {
		return time.Time{}, err
	}
	setSeconds := next.Second()

	next, err = resolveMinutes(next, a.Minutes)
	if err != nil {
		return time.Time{}, err
	}
	if next.Second() != setSeconds {
		return NextUpcoming(next, a)
	}
	setMinutes := next.Minute()

	next, err = resolveHours(next, a.Hours)
	if err != nil {
		return time.Time{}, err
	}
	if next.Second() != setSeconds || next.Minute() != setMinutes {
		return NextUpcoming(next, a)
	}
	setHours := next.Hour()

	next, err = resolveDays(next, a.Days)
	if err != nil {
		return time.Time{}, err
	}
	if next.Second() != setSeconds || next.Minute() != setMinutes || next.Hour() != setHours {
		return NextUpcoming(next, a)
	}
	setDay := next.Day()

	next, err = resolveMonths(next, a.Months, after)
	if err != nil {
		return time.Time{}, err
	}
	if next.Second() != setSeconds || next.Minute() != setMinutes || next.Hour() != setHours || next.Day() != setDay {
		return NextUpcoming(next, a)
	}

	return secondPrecision(next), nil
}

// NextUpcomingAfterLast guarantees strict progress across re-queues:
// if the computed occurrence equals last (the moment this task was
// previously scheduled for), it recomputes from after+1s.
func NextUpcomingAfterLast(after time.Time, a At, last time.Time) (time.Time, error) {
	upcoming, err := NextUpcoming(after, a)
	if err != nil {
		return time.Time{}, err
	}
	if !upcoming.Equal(last) {
		return upcoming, nil
	}
	return NextUpcoming(after.Add(time.Second), a)
}

func secondPrecision(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

func resolveSeconds(next time.Time, occ Occurrence) (time.Time, error) {
	switch occ.Kind {
	case KindFirst:
		if next.Second() == 0 {
			return next, nil
		}
		return replaceSecond(next, 0).Add(time.Minute), nil
	case KindEvery:
		return next, nil
	case KindOnce:
		target := occ.Values[0]
		if target >= uint8(next.Second()) {
			return replaceSecond(next, int(target)), nil
		}
		return replaceSecond(next, int(target)).Add(time.Minute), nil
	case KindMultiple:
		nearest, overflow := nearestValue(occ.Values, uint8(next.Second()), 60)
		out := replaceSecond(next, int(nearest))
		if overflow {
			out = out.Add(time.Minute)
		}
		return out, nil
	default:
		return next, fmt.Errorf("%w: unknown seconds occurrence", ErrInvalidPattern)
	}
}

func resolveMinutes(next time.Time, occ Occurrence) (time.Time, error) {
	switch occ.Kind {
	case KindFirst:
		if next.Minute() == 0 {
			return next, nil
		}
		return replaceMinute(next, 0).Add(time.Hour), nil
	case KindEvery:
		return next, nil
	case KindOnce:
		target := occ.Values[0]
		if target >= uint8(next.Minute()) {
			return replaceMinute(next, int(target)), nil
		}
		return replaceMinute(next, int(target)).Add(time.Hour), nil
	case KindMultiple:
		nearest, overflow := nearestValue(occ.Values, uint8(next.Minute()), 60)
		out := replaceMinute(next, int(nearest))
		if overflow {
			out = out.Add(time.Hour)
		}
		return out, nil
	default:
		return next, fmt.Errorf("%w: unknown minutes occurrence", ErrInvalidPattern)
	}
}

func resolveHours(next time.Time, occ Occurrence) (time.Time, error) {
	switch occ.Kind {
	case KindFirst:
		if next.Hour() == 0 {
			return next, nil
		}
		return replaceHour(next, 0).AddDate(0, 0, 1), nil
	case KindEvery:
		return next, nil
	case KindOnce:
		target := occ.Values[0]
		if target >= uint8(next.Hour()) {
			return replaceHour(next, int(target)), nil
		}
		return replaceHour(next, int(target)).AddDate(0, 0, 1), nil
	case KindMultiple:
		nearest, overflow := nearestValue(occ.Values, uint8(next.Hour()), daysInCurrentMonthHack(next))
		out := replaceHour(next, int(nearest))
		if overflow {
			out = out.AddDate(0, 0, 1)
		}
		return out, nil
	default:
		return next, fmt.Errorf("%w: unknown hours occurrence", ErrInvalidPattern)
	}
}

// daysInCurrentMonthHack mirrors the original's (likely accidental)
// reuse of "days in current month" as the modulus for wrapping hours.
// Hours only range 0..23, and any modulus of 24 or more ranks every
// same-day candidate ahead of every wrapped one without reordering
// either group, so the 28..31 modulus picks the same candidate as 24
// would.
func daysInCurrentMonthHack(t time.Time) uint8 {
	return daysInCurrentMonth(t)
}

func resolveDays(next time.Time, occ Occurrence) (time.Time, error) {
	switch occ.Kind {
	case KindFirst:
		if next.Day() == 1 {
			return next, nil
		}
		return nextMonth(replaceDay(next, 1)), nil
	case KindEvery:
		return next, nil
	case KindOnce:
		// target still ahead of (or equal to) today's day-of-month:
		// it's still reachable this month. Strictly behind: this
		// month's occurrence already passed, search from next month.
		target := occ.Values[0]
		return monthWithDay(next, target, target >= uint8(next.Day())), nil
	case KindMultiple:
		nearest, overflow := nearestValue(occ.Values, uint8(next.Day()), daysInCurrentMonth(next))
		out := monthWithDay(next, nearest, true)
		if overflow {
			out = nextMonth(out)
		}
		return out, nil
	default:
		return next, fmt.Errorf("%w: unknown days occurrence", ErrInvalidPattern)
	}
}

func resolveMonths(next time.Time, occ Occurrence, after time.Time) (time.Time, error) {
	switch occ.Kind {
	case KindFirst:
		if next.Month() == time.January {
			return next, nil
		}
		return replaceMonth(nextYear(next), time.January), nil
	case KindEvery:
		return next, nil
	case KindOnce:
		// goal still ahead of (or equal to) the current month: reach
		// it by walking forward within this year. Strictly behind:
		// it already passed this year, jump to the nearest future
		// year where month/day combination is valid.
		goal := time.Month(occ.Values[0])
		if occ.Values[0] >= uint8(next.Month()) {
			// nextMonth steps to the next month with enough days for
			// the resolved day-of-month, which can skip past a short
			// February entirely (e.g. day 29 in a non-leap year) —
			// so reaching goal can take several years' worth of
			// months, not just the twelve in a single year.
			cur := next
			for i := 0; i < 120; i++ {
				if cur.Month() == goal {
					return cur, nil
				}
				cur = nextMonth(cur)
			}
			return time.Time{}, fmt.Errorf("%w: could not reach month %d", ErrNoSuchDate, goal)
		}
		for years := 1; years <= 4; years++ {
			candidate := time.Date(next.Year()+years, goal, next.Day(), next.Hour(), next.Minute(), next.Second(), 0, next.Location())
			if candidate.Month() == goal && candidate.Year() == next.Year()+years {
				return candidate, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: no valid year/month combination for month=%d day=%d", ErrNoSuchDate, goal, next.Day())
	case KindMultiple:
		candidates := nearestValues(occ.Values, uint8(next.Month()), 12)

		type scored struct {
			t    time.Time
			dist time.Duration
		}
		var found []scored
		for _, c := range candidates {
			yearBump := 0
			if c.overflow {
				yearBump = 1
			}
			var picked time.Time
			ok := false
			for years := 0; years < 4; years++ {
				candidate := time.Date(next.Year()+years+yearBump, time.Month(c.value), next.Day(), next.Hour(), next.Minute(), next.Second(), 0, next.Location())
				if candidate.Month() == time.Month(c.value) {
					picked = candidate
					ok = true
					break
				}
			}
			if !ok {
				return time.Time{}, fmt.Errorf("%w: no valid date for month=%d day=%d", ErrNoSuchDate, c.value, next.Day())
			}
			found = append(found, scored{picked, picked.Sub(after)})
		}
		sort.Slice(found, func(i, j int) bool { return found[i].dist < found[j].dist })
		return found[0].t, nil
	default:
		return next, fmt.Errorf("%w: unknown months occurrence", ErrInvalidPattern)
	}
}

// --- field replacement helpers (preserve location, zero below the replaced field is NOT implied) ---

func replaceSecond(t time.Time, s int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), s, t.Nanosecond(), t.Location())
}

func replaceMinute(t time.Time, m int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, t.Second(), t.Nanosecond(), t.Location())
}

func replaceHour(t time.Time, h int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), h, t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func replaceDay(t time.Time, d int) time.Time {
	return time.Date(t.Year(), t.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func replaceMonth(t time.Time, m time.Month) time.Time {
	return time.Date(t.Year(), m, t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// --- nearest-candidate search, ported from the solver's distance_from/nearest_value ---

type scoredCandidate struct {
	distance uint8
	value    uint8
	overflow bool
}

func distanceFrom(candidate, curr, total uint8) (uint8, bool) {
	overflow := candidate < curr
	if overflow {
		return candidate + total - curr, true
	}
	return candidate - curr, false
}

func nearestValue(candidates []uint8, curr, total uint8) (uint8, bool) {
	best := scoredCandidate{distance: 255}
	for _, c := range candidates {
		dist, overflow := distanceFrom(c, curr, total)
		if dist < best.distance {
			best = scoredCandidate{dist, c, overflow}
		}
	}
	return best.value, best.overflow
}

func nearestValues(candidates []uint8, curr, total uint8) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		dist, overflow := distanceFrom(c, curr, total)
		out = append(out, scoredCandidate{dist, c, overflow})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].distance < out[j].distance })
	return out
}

// --- calendar helpers ---

func daysInCurrentMonth(t time.Time) uint8 {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return uint8(lastOfThis.Day())
}

// nextMonth advances to the same day-of-month in the following
// month, skipping months that don't contain the target day (e.g.
// asking for day 31 lands on the next month that has one).
func nextMonth(from time.Time) time.Time {
	if from.Month() == time.December {
		return replaceMonth(nextYear(from), time.January)
	}
	if from.Day() < 28 {
		return from.AddDate(0, 0, int(daysInCurrentMonth(from)))
	}
	return monthWithDay(from, uint8(from.Day()), false)
}

// monthWithDay finds the next month (starting from `from`, or the
// month after `from` if tryCurrentMonth is false) that has at least
// fromDay days, and returns `from` with its day replaced by fromDay
// in that month.
func monthWithDay(from time.Time, fromDay uint8, tryCurrentMonth bool) time.Time {
	var next time.Time
	if tryCurrentMonth {
		next = from
	} else {
		next = nextMonth(replaceDay(from, 1))
	}

	for daysInCurrentMonth(next) < fromDay {
		next = nextMonth(replaceDay(next, 1))
	}

	return replaceDay(next, int(fromDay))
}

// nextYear advances to the following year, skipping forward further
// only if the current (month, day) isn't valid there — Feb 29 is the
// only case, since time.Date would otherwise silently normalize an
// invalid day into the next month instead of signaling overflow.
func nextYear(from time.Time) time.Time {
	inc := 1
	for {
		candidateYear := from.Year() + inc
		candidate := time.Date(candidateYear, from.Month(), from.Day(), from.Hour(), from.Minute(), from.Second(), 0, from.Location())
		if candidate.Month() == from.Month() && candidate.Day() == from.Day() {
			return candidate
		}
		inc++
	}
}
