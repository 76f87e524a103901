package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseCron_Valid(t *testing.T) {
	valid := []string{
		"* * * * *",
		"0 9 * * 1-5",
		"*/15 * * * *",
		"0,30 8-18 * * *",
		"5 4 1 1 0",
		"0 0 * * 7",
	}
	for _, expr := range valid {
		if _, err := ParseCron(expr); err != nil {
			t.Errorf("ParseCron(%q) = %v, want nil", expr, err)
		}
	}
}

func TestParseCron_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"* * * *",       // 4 fields
		"* * * * * *",   // 6 fields
		"60 * * * *",    // minute out of range
		"* 24 * * *",    // hour out of range
		"* * 0 * *",     // day out of range
		"* * * 13 *",    // month out of range
		"* * * * 8",     // weekday out of range
		"*/0 * * * *",   // zero step
		"10-5 * * * *",  // inverted range
		"a * * * *",     // not a number
		"1,99 * * * *",  // list entry out of range
	}
	for _, expr := range invalid {
		if _, err := ParseCron(expr); !errors.Is(err, ErrInvalidCron) {
			t.Errorf("ParseCron(%q) = %v, want ErrInvalidCron", expr, err)
		}
	}
}

func TestCron_Matches(t *testing.T) {
	// Monday 2024-01-08 09:00 local.
	monday9 := time.Date(2024, 1, 8, 9, 0, 0, 0, time.Local)

	tests := []struct {
		expr string
		at   time.Time
		want bool
	}{
		{"* * * * *", monday9, true},
		{"0 9 * * 1-5", monday9, true},
		{"0 9 * * 1-5", monday9.Add(time.Minute), false},
		{"0 10 * * *", monday9, false},
		{"*/15 * * * *", time.Date(2024, 1, 8, 9, 45, 0, 0, time.Local), true},
		{"*/15 * * * *", time.Date(2024, 1, 8, 9, 44, 0, 0, time.Local), false},
		{"0 9 8 1 *", monday9, true},
		{"0 9 9 1 *", monday9, false},
	}
	for _, tt := range tests {
		c := MustParseCron(tt.expr)
		if got := c.Matches(tt.at); got != tt.want {
			t.Errorf("%q matches %v = %v, want %v", tt.expr, tt.at, got, tt.want)
		}
	}
}

func TestCron_Matches_SundayBothSpellings(t *testing.T) {
	// Sunday 2024-01-07 12:00 local.
	sunday := time.Date(2024, 1, 7, 12, 0, 0, 0, time.Local)

	if !MustParseCron("0 12 * * 0").Matches(sunday) {
		t.Error("weekday 0 should match Sunday")
	}
	if !MustParseCron("0 12 * * 7").Matches(sunday) {
		t.Error("weekday 7 should match Sunday")
	}
	if MustParseCron("0 12 * * 1").Matches(sunday) {
		t.Error("weekday 1 should not match Sunday")
	}
}

// S6: cron "0 9 * * 1-5" from Saturday 2024-01-06 10:00 local resolves
// to Monday 2024-01-08 09:00 local.
func TestCron_NextMatch_SkipsWeekend(t *testing.T) {
	c := MustParseCron("0 9 * * 1-5")
	from := time.Date(2024, 1, 6, 10, 0, 0, 0, time.Local)

	got := c.NextMatch(from)
	want := time.Date(2024, 1, 8, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("NextMatch = %v, want %v", got, want)
	}
}

func TestCron_NextMatch_ResultMatches(t *testing.T) {
	exprs := []string{"* * * * *", "30 14 * * *", "0 9 * * 1-5", "*/20 * * * *"}
	from := time.Date(2024, 3, 15, 11, 7, 0, 0, time.Local)

	for _, expr := range exprs {
		c := MustParseCron(expr)
		next := c.NextMatch(from)
		if !c.Matches(next) {
			t.Errorf("%q: NextMatch result %v does not match its own expression", expr, next)
		}
	}
}

func TestCron_NextMatch_NoMatchReturnsFrom(t *testing.T) {
	// February 30th never exists.
	c := MustParseCron("0 0 30 2 *")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	if got := c.NextMatch(from); !got.Equal(from) {
		t.Errorf("NextMatch = %v, want from %v (terminal guard)", got, from)
	}
}
