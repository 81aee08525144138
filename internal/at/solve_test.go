package at_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/at"
)

func mustParse(t *testing.T, pattern string) at.At {
	t.Helper()
	a, err := at.Parse(pattern)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", pattern, err)
	}
	return a
}

func utc(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}

func TestNextUpcoming_Hourly(t *testing.T) {
	a := mustParse(t, "m=0")
	after := utc(2024, time.January, 1, 0, 30, 15)
	want := utc(2024, time.January, 1, 1, 0, 0)

	got, err := at.NextUpcoming(after, a)
	if err != nil {
		t.Fatalf("NextUpcoming returned error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("NextUpcoming(%v, m=0) = %v, want %v", after, got, want)
	}
}

func TestNextUpcoming_MultipleDays(t *testing.T) {
	a := mustParse(t, "D=1,15 h=6")
	after := utc(2024, time.February, 15, 12, 0, 0)
	want := utc(2024, time.March, 1, 6, 0, 0)

	got, err := at.NextUpcoming(after, a)
	if err != nil {
		t.Fatalf("NextUpcoming returned error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("NextUpcoming(%v, D=1,15 h=6) = %v, want %v", after, got, want)
	}
}

func TestNextUpcoming_LeapDay(t *testing.T) {
	a := mustParse(t, "M=2 D=29")
	after := utc(2023, time.January, 10, 0, 0, 0)
	want := utc(2024, time.February, 29, 0, 0, 0)

	got, err := at.NextUpcoming(after, a)
	if err != nil {
		t.Fatalf("NextUpcoming returned error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("NextUpcoming(%v, M=2 D=29) = %v, want %v", after, got, want)
	}
}

func TestNextUpcoming_ExactMatchIsKept(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		after   time.Time
	}{
		{"seconds once exact", "s=30", utc(2024, time.June, 1, 12, 5, 30)},
		{"minutes once exact", "m=45", utc(2024, time.June, 1, 12, 45, 0)},
		{"hours once exact", "h=6", utc(2024, time.June, 1, 6, 0, 0)},
		{"days once exact", "D=15", utc(2024, time.June, 15, 0, 0, 0)},
		{"months once exact", "M=6 D=1", utc(2024, time.June, 1, 0, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mustParse(t, tc.pattern)
			got, err := at.NextUpcoming(tc.after, a)
			if err != nil {
				t.Fatalf("NextUpcoming returned error: %v", err)
			}
			if !got.Equal(tc.after) {
				t.Fatalf("NextUpcoming(%v, %q) = %v, want it unchanged (after already matches)", tc.after, tc.pattern, got)
			}
		})
	}
}

func TestNextUpcoming_NeverGoesBackwards(t *testing.T) {
	patterns := []string{
		"s=30", "m=45", "h=6", "D=5", "D=29", "M=2 D=29", "D=1,15 h=6",
		"M=1,6,12", "h=3,9,15,21",
	}
	afters := []time.Time{
		utc(2024, time.January, 10, 0, 0, 0),
		utc(2024, time.February, 15, 12, 0, 0),
		utc(2023, time.December, 31, 23, 59, 59),
		utc(2024, time.June, 1, 6, 0, 0),
	}

	for _, pattern := range patterns {
		a := mustParse(t, pattern)
		for _, after := range afters {
			got, err := at.NextUpcoming(after, a)
			if err != nil {
				continue
			}
			if got.Before(after) {
				t.Fatalf("NextUpcoming(%v, %q) = %v, which is before after", after, pattern, got)
			}
		}
	}
}

func TestNextUpcoming_MatchesFieldByField(t *testing.T) {
	a := mustParse(t, "M=3,9 D=10,20 h=4,16 m=30 s=15")
	after := utc(2024, time.January, 1, 0, 0, 0)

	got, err := at.NextUpcoming(after, a)
	if err != nil {
		t.Fatalf("NextUpcoming returned error: %v", err)
	}

	if got.Second() != 15 {
		t.Errorf("second = %d, want 15", got.Second())
	}
	if got.Minute() != 30 {
		t.Errorf("minute = %d, want 30", got.Minute())
	}
	if got.Hour() != 4 && got.Hour() != 16 {
		t.Errorf("hour = %d, want 4 or 16", got.Hour())
	}
	if got.Day() != 10 && got.Day() != 20 {
		t.Errorf("day = %d, want 10 or 20", got.Day())
	}
	if got.Month() != time.March && got.Month() != time.September {
		t.Errorf("month = %v, want March or September", got.Month())
	}
}

func TestNextUpcomingAfterLast_StrictProgress(t *testing.T) {
	a := mustParse(t, "m=0")
	after := utc(2024, time.January, 1, 1, 0, 0)
	last := utc(2024, time.January, 1, 1, 0, 0)

	got, err := at.NextUpcomingAfterLast(after, a, last)
	if err != nil {
		t.Fatalf("NextUpcomingAfterLast returned error: %v", err)
	}
	if !got.After(last) {
		t.Fatalf("NextUpcomingAfterLast(%v, m=0, last=%v) = %v, want strictly after last", after, last, got)
	}
	want := utc(2024, time.January, 1, 2, 0, 0)
	if !got.Equal(want) {
		t.Fatalf("NextUpcomingAfterLast(%v, m=0, last=%v) = %v, want %v", after, last, got, want)
	}
}

func TestNextUpcoming_UnreachableMonthDay(t *testing.T) {
	a := mustParse(t, "M=2 D=30")
	after := utc(2024, time.January, 1, 0, 0, 0)

	if _, err := at.NextUpcoming(after, a); err == nil {
		t.Fatal("expected error for M=2 D=30 (February never has 30 days)")
	}
}
