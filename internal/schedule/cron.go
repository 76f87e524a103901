package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronScanLimit bounds the NextMatch forward scan. An expression that
// matches nothing within a year (e.g. Feb 30) returns the from time
// unchanged.
const cronScanLimit = 365 * 24 * time.Hour

// cronField is one parsed field of a cron expression: either a wildcard
// or an explicit value set.
type cronField struct {
	wildcard bool
	values   map[int]struct{}
}

func (f cronField) contains(v int) bool {
	if f.wildcard {
		return true
	}
	_, ok := f.values[v]
	return ok
}

// Cron is a parsed five-field cron expression
// (minute hour day-of-month month day-of-week).
//
// Supported per-field syntax: "*", "a-b" inclusive ranges, "*/s" steps,
// comma lists and bare integers. Weekday accepts 0-7 with both 0 and 7
// meaning Sunday.
type Cron struct {
	minute  cronField
	hour    cronField
	day     cronField
	month   cronField
	weekday cronField
	expr    string
}

// Expression returns the original expression text.
func (c Cron) Expression() string { return c.expr }

// ParseCron parses a five-field cron expression.
func ParseCron(expr string) (Cron, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Cron{}, fmt.Errorf("%w: %q has %d fields, want 5", ErrInvalidCron, expr, len(fields))
	}

	specs := []struct {
		min, max int
		name     string
	}{
		{0, 59, "minute"},
		{0, 23, "hour"},
		{1, 31, "day"},
		{1, 12, "month"},
		{0, 7, "weekday"},
	}

	parsed := make([]cronField, 5)
	for i, spec := range specs {
		field, err := parseCronField(fields[i], spec.min, spec.max)
		if err != nil {
			return Cron{}, fmt.Errorf("%w: %s field %q: %v", ErrInvalidCron, spec.name, fields[i], err)
		}
		parsed[i] = field
	}

	return Cron{
		minute:  parsed[0],
		hour:    parsed[1],
		day:     parsed[2],
		month:   parsed[3],
		weekday: parsed[4],
		expr:    expr,
	}, nil
}

// MustParseCron is ParseCron that panics on error; for fixed expressions
// in tests.
func MustParseCron(expr string) Cron {
	c, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return c
}

func parseCronField(field string, min, max int) (cronField, error) {
	if field == "*" {
		return cronField{wildcard: true}, nil
	}

	values := make(map[int]struct{})

	switch {
	case strings.HasPrefix(field, "*/"):
		step, err := strconv.Atoi(field[2:])
		if err != nil || step <= 0 {
			return cronField{}, fmt.Errorf("bad step")
		}
		for v := min; v <= max; v += step {
			values[v] = struct{}{}
		}

	case strings.Contains(field, ","):
		for _, item := range strings.Split(field, ",") {
			v, err := strconv.Atoi(item)
			if err != nil || v < min || v > max {
				return cronField{}, fmt.Errorf("bad list entry %q", item)
			}
			values[v] = struct{}{}
		}

	case strings.Contains(field, "-"):
		parts := strings.SplitN(field, "-", 2)
		start, err1 := strconv.Atoi(parts[0])
		end, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || start > end || start < min || end > max {
			return cronField{}, fmt.Errorf("bad range")
		}
		for v := start; v <= end; v++ {
			values[v] = struct{}{}
		}

	default:
		v, err := strconv.Atoi(field)
		if err != nil || v < min || v > max {
			return cronField{}, fmt.Errorf("bad value")
		}
		values[v] = struct{}{}
	}

	return cronField{values: values}, nil
}

// Matches reports whether the expression matches the local-time
// components of t (seconds ignored).
func (c Cron) Matches(t time.Time) bool {
	local := t.Local()

	if !c.minute.contains(local.Minute()) {
		return false
	}
	if !c.hour.contains(local.Hour()) {
		return false
	}
	if !c.day.contains(local.Day()) {
		return false
	}
	if !c.month.contains(int(local.Month())) {
		return false
	}

	// Both 0 and 7 mean Sunday: a Sunday time matches a field holding
	// either spelling.
	weekday := int(local.Weekday())
	if c.weekday.contains(weekday) {
		return true
	}
	return weekday == 0 && c.weekday.contains(7)
}

// NextMatch scans forward minute-by-minute from the given time
// (inclusive, truncated to the minute) and returns the first matching
// time. If nothing matches within 365 days, from is returned unchanged.
func (c Cron) NextMatch(from time.Time) time.Time {
	current := from.Truncate(time.Minute)
	end := from.Add(cronScanLimit)

	for current.Before(end) {
		if c.Matches(current) {
			return current
		}
		current = current.Add(time.Minute)
	}
	return from
}
