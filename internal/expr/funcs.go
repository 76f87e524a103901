package expr

import (
	"strconv"
	"strings"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

// call dispatches a built-in function. Unknown names and wrong arity
// evaluate to null.
func (e *Evaluator) call(n *Call, ctx *value.Context) value.Value {
	switch n.Func {
	case "contains":
		if len(n.Args) != 2 {
			return value.Null()
		}
		return stringContains(n.Args[0].eval(e, ctx), n.Args[1].eval(e, ctx))

	case "starts_with":
		if len(n.Args) != 2 {
			return value.Null()
		}
		return stringStartsWith(n.Args[0].eval(e, ctx), n.Args[1].eval(e, ctx))

	case "ends_with":
		if len(n.Args) != 2 {
			return value.Null()
		}
		return stringEndsWith(n.Args[0].eval(e, ctx), n.Args[1].eval(e, ctx))

	case "time_between":
		if len(n.Args) != 3 {
			return value.Null()
		}
		return e.timeBetween(n.Args[0].eval(e, ctx), n.Args[1].eval(e, ctx), n.Args[2].eval(e, ctx))

	case "day_of_week":
		if len(n.Args) != 1 {
			return value.Null()
		}
		return e.dayOfWeek(n.Args[0].eval(e, ctx))

	case "avg_last_n":
		return e.aggregate(n, ctx, aggAvg)
	case "max_last_n":
		return e.aggregate(n, ctx, aggMax)
	case "trend":
		return e.aggregate(n, ctx, aggTrend)

	default:
		return value.Null()
	}
}

func (e *Evaluator) nowMillis() int64 {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now().UnixMilli()
}

// timeBetween reports whether t falls inside the [start, end] wall-clock
// window.
//
// t is either epoch milliseconds (number) or "HH:MM"; start and end are
// "HH:MM" local-time strings. Windows may wrap midnight: 22:00-06:00
// matches 23:15.
func (e *Evaluator) timeBetween(t, start, end value.Value) value.Value {
	startMin, ok := parseClock(start)
	if !ok {
		return value.Bool(false)
	}
	endMin, ok := parseClock(end)
	if !ok {
		return value.Bool(false)
	}

	var minute int
	switch {
	case t.IsNumber():
		local := time.UnixMilli(t.Int()).Local()
		minute = local.Hour()*60 + local.Minute()
	case t.IsString():
		m, ok := parseClock(t)
		if !ok {
			return value.Bool(false)
		}
		minute = m
	default:
		return value.Bool(false)
	}

	if startMin <= endMin {
		return value.Bool(minute >= startMin && minute <= endMin)
	}
	// Window wraps midnight.
	return value.Bool(minute >= startMin || minute <= endMin)
}

// parseClock parses "HH:MM" into minute-of-day.
func parseClock(v value.Value) (int, bool) {
	if !v.IsString() {
		return 0, false
	}
	parts := strings.SplitN(v.Str(), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// dayOfWeek returns the local weekday (0 = Sunday .. 6 = Saturday) of an
// epoch-milliseconds timestamp. Non-numeric input reads the current
// clock, preserving the reference behaviour for string arguments.
func (e *Evaluator) dayOfWeek(t value.Value) value.Value {
	if t.IsNumber() {
		return value.Int(int64(time.UnixMilli(t.Int()).Local().Weekday()))
	}
	if t.IsString() {
		return value.Int(int64(time.UnixMilli(e.nowMillis()).Local().Weekday()))
	}
	return value.Null()
}

type aggKind int

const (
	aggAvg aggKind = iota
	aggMax
	aggTrend
)

// aggregate computes a last-n historical aggregate for a context variable.
//
// The first argument names the series: a Var node contributes its name
// directly, anything else must evaluate to a string. With no history
// provider, or an empty series, the variable's current value is returned.
func (e *Evaluator) aggregate(n *Call, ctx *value.Context, kind aggKind) value.Value {
	if len(n.Args) != 2 {
		return value.Null()
	}

	var name string
	if v, ok := n.Args[0].(*Var); ok {
		name = v.Name
	} else {
		arg := n.Args[0].eval(e, ctx)
		if !arg.IsString() {
			return value.Null()
		}
		name = arg.Str()
	}

	count := n.Args[1].eval(e, ctx)
	if !count.IsNumber() || count.Int() <= 0 {
		return value.Null()
	}

	if e.history == nil {
		return ctx.Get(name)
	}
	samples := numericSamples(e.history.LastN(name, int(count.Int())))
	if len(samples) == 0 {
		return ctx.Get(name)
	}

	switch kind {
	case aggAvg:
		sum := 0.0
		for _, s := range samples {
			sum += s
		}
		return value.Float(sum / float64(len(samples)))
	case aggMax:
		best := samples[0]
		for _, s := range samples[1:] {
			if s > best {
				best = s
			}
		}
		return value.Float(best)
	case aggTrend:
		delta := samples[len(samples)-1] - samples[0]
		switch {
		case delta > 0:
			return value.Int(1)
		case delta < 0:
			return value.Int(-1)
		default:
			return value.Int(0)
		}
	default:
		return value.Null()
	}
}

func numericSamples(history []value.Value) []float64 {
	out := make([]float64, 0, len(history))
	for _, v := range history {
		if v.IsNumber() {
			out = append(out, v.Float())
		}
	}
	return out
}
