package at_test

import (
	"testing"

	"github.com/ErlanBelekov/cronlet/internal/at"
)

func TestParse_Defaults(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		want   at.At
	}{
		{
			name:  "hours and minutes explicit",
			input: "h=10 m=0",
			want: at.At{
				Months:  at.Every(),
				Days:    at.Every(),
				Hours:   at.Once(10),
				Minutes: at.Once(0),
				Seconds: at.First(),
			},
		},
		{
			name:  "minutes only",
			input: "m=0",
			want: at.At{
				Months:  at.Every(),
				Days:    at.Every(),
				Hours:   at.Every(),
				Minutes: at.Once(0),
				Seconds: at.First(),
			},
		},
		{
			name:  "months and days explicit",
			input: "M=2 D=29",
			want: at.At{
				Months:  at.Once(2),
				Days:    at.Once(29),
				Hours:   at.First(),
				Minutes: at.First(),
				Seconds: at.First(),
			},
		},
		{
			name:  "days multiple, hours explicit",
			input: "D=1,15 h=6",
			want: at.At{
				Months:  at.Every(),
				Days:    at.Multiple([]uint8{1, 15}),
				Hours:   at.Once(6),
				Minutes: at.First(),
				Seconds: at.First(),
			},
		},
		{
			name:  "wildcard months",
			input: "M=* D=5",
			want: at.At{
				Months:  at.Every(),
				Days:    at.Once(5),
				Hours:   at.First(),
				Minutes: at.First(),
				Seconds: at.First(),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := at.Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"x=1",
		"h=",
		"h",
		"h=10 h=11",
		"h=24",
		"M=13",
		"D=32",
		"m=60",
		"s=60",
		"h=1,abc",
	}

	for _, input := range cases {
		if _, err := at.Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error, got none", input)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	cases := []string{
		"h=10 m=0",
		"m=0",
		"M=2 D=29",
		"D=1,15 h=6",
		"s=30",
		"M=1,6,12",
	}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			parsed, err := at.Parse(input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", input, err)
			}
			encoded := parsed.Encode()
			reparsed, err := at.Parse(encoded)
			if err != nil {
				t.Fatalf("Parse(Encode(%q)=%q) returned error: %v", input, encoded, err)
			}
			if !parsed.Equal(reparsed) {
				t.Fatalf("parse/encode round trip mismatch for %q: parsed=%+v reparsed(from %q)=%+v", input, parsed, encoded, reparsed)
			}
		})
	}
}

func TestEncode_CanonicalForm(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"h=10 m=0", "M=* D=* h=10 m=0"},
		{"m=0", "M=* D=* h=* m=0"},
		{"M=2 D=29", "M=2 D=29"},
	}

	for _, tc := range cases {
		parsed, err := at.Parse(tc.input)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.input, err)
		}
		if got := parsed.Encode(); got != tc.want {
			t.Errorf("Parse(%q).Encode() = %q, want %q", tc.input, got, tc.want)
		}
	}
}
