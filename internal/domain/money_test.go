package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

func TestParseAmountMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"3.50", 350},
		{"3.5", 350},
		{"7", 700},
		{"0.05", 5},
		{"0", 0},
		{".99", 99},
		{" 12.00 ", 1200},
		{"-1.25", -125},
	}

	for _, c := range cases {
		got, err := domain.ParseAmountMinor(c.in)
		if err != nil {
			t.Fatalf("ParseAmountMinor(%q) failed: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseAmountMinor(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseAmountMinor_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.234", "1,50", "1.x"} {
		if _, err := domain.ParseAmountMinor(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatAmountMinor(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{350, "3.50"},
		{700, "7.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-125, "-1.25"},
	}

	for _, c := range cases {
		if got := domain.FormatAmountMinor(c.in); got != c.want {
			t.Fatalf("FormatAmountMinor(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 1297, 123456} {
		parsed, err := domain.ParseAmountMinor(domain.FormatAmountMinor(minor))
		if err != nil {
			t.Fatalf("round trip %d failed: %v", minor, err)
		}
		if parsed != minor {
			t.Fatalf("round trip %d got %d", minor, parsed)
		}
	}
}
