package expr

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

func parseJSON(t *testing.T, raw string) Node {
	t.Helper()
	var v value.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return Parse(v)
}

func TestEvaluator_Arithmetic(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("t", value.Int(20))
	e := NewEvaluator()

	tests := []struct {
		name string
		expr string
		want value.Value
	}{
		{"add ints", `{"op":"+","left":2,"right":3}`, value.Int(5)},
		{"add var", `{"op":"+","left":"t","right":1.5}`, value.Float(21.5)},
		{"subtract", `{"op":"-","left":10,"right":4}`, value.Int(6)},
		{"multiply", `{"op":"*","left":3,"right":4}`, value.Int(12)},
		{"divide", `{"op":"/","left":9,"right":2}`, value.Float(4.5)},
		{"modulo", `{"op":"%","left":9,"right":4}`, value.Float(1)},
		{"divide by zero", `{"op":"/","left":9,"right":0}`, value.Null()},
		{"modulo by zero", `{"op":"%","left":9,"right":0}`, value.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(parseJSON(t, tt.expr), ctx)
			if !got.Equal(tt.want) && !(got.IsNull() && tt.want.IsNull()) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_StringConcat(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("room", value.String("kitchen"))
	e := NewEvaluator()

	node := &BinOp{Op: "+", Left: &Literal{Value: value.String("in ")}, Right: &Var{Name: "room"}}
	got := e.Evaluate(node, ctx)
	if got.Str() != "in kitchen" {
		t.Errorf("got %q, want %q", got.Str(), "in kitchen")
	}
}

func TestEvaluator_TypeMismatchIsNull(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("room", value.String("kitchen"))
	e := NewEvaluator()

	node := &BinOp{Op: "-", Left: &Var{Name: "room"}, Right: &Literal{Value: value.Int(1)}}
	if got := e.Evaluate(node, ctx); !got.IsNull() {
		t.Errorf("string minus int = %v, want null", got)
	}
}

func TestEvaluator_Comparison(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("t", value.Int(45))
	e := NewEvaluator()

	tests := []struct {
		expr string
		want bool
	}{
		{`{"op":">","left":"t","right":40}`, true},
		{`{"op":"<","left":"t","right":40}`, false},
		{`{"op":">=","left":"t","right":45}`, true},
		{`{"op":"<=","left":"t","right":44}`, false},
		{`{"op":"==","left":"t","right":45}`, true},
		{`{"op":"!=","left":"t","right":45}`, false},
		// Cross-type ordering is false.
		{`{"op":">","left":"t","right":"40"}`, true}, // "40" is a var ref reading null... see below
	}
	// The final row: right "40" parses as a Var named "40"; it reads null,
	// so the ordered comparison is unordered and false.
	tests[len(tests)-1].want = false

	for _, tt := range tests {
		got := e.Evaluate(parseJSON(t, tt.expr), ctx)
		if got.Bool() != tt.want {
			t.Errorf("%s = %v, want %v", tt.expr, got.Bool(), tt.want)
		}
	}
}

func TestEvaluator_Logical(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("a", value.Int(1))
	ctx.Set("b", value.Int(0))
	ctx.Set("s", value.String(""))
	e := NewEvaluator()

	tests := []struct {
		expr string
		want bool
	}{
		{`{"op":"&&","left":"a","right":"b"}`, false},
		{`{"op":"&&","left":"a","right":"a"}`, true},
		{`{"op":"||","left":"b","right":"a"}`, true},
		{`{"op":"||","left":"b","right":"s"}`, false},
		{`{"op":"||","left":"b","right":"missing"}`, false},
	}
	for _, tt := range tests {
		got := e.Evaluate(parseJSON(t, tt.expr), ctx)
		if got.Bool() != tt.want {
			t.Errorf("%s = %v, want %v", tt.expr, got.Bool(), tt.want)
		}
	}
}

func TestEvaluator_MissingVarIsNull(t *testing.T) {
	e := NewEvaluator()
	got := e.Evaluate(&Var{Name: "absent"}, value.NewContext())
	if !got.IsNull() {
		t.Errorf("missing var = %v, want null", got)
	}
}

func TestEvaluator_StringFunctions(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("msg", value.String("door sensor offline"))
	e := NewEvaluator()

	contains := &Call{Func: "contains", Args: []Node{
		&Var{Name: "msg"}, &Literal{Value: value.String("offline")},
	}}
	if !e.Evaluate(contains, ctx).Bool() {
		t.Error("contains(msg, offline) should be true")
	}

	starts := &Call{Func: "starts_with", Args: []Node{
		&Var{Name: "msg"}, &Literal{Value: value.String("door")},
	}}
	if !e.Evaluate(starts, ctx).Bool() {
		t.Error("starts_with(msg, door) should be true")
	}

	ends := &Call{Func: "ends_with", Args: []Node{
		&Var{Name: "msg"}, &Literal{Value: value.String("offline")},
	}}
	if !e.Evaluate(ends, ctx).Bool() {
		t.Error("ends_with(msg, offline) should be true")
	}
}

func TestEvaluator_WrongArityIsNull(t *testing.T) {
	e := NewEvaluator()
	ctx := value.NewContext()

	oneArg := &Call{Func: "contains", Args: []Node{&Literal{Value: value.String("x")}}}
	if got := e.Evaluate(oneArg, ctx); !got.IsNull() {
		t.Errorf("contains/1 = %v, want null", got)
	}

	threeArgs := &Call{Func: "starts_with", Args: []Node{
		&Literal{Value: value.String("a")},
		&Literal{Value: value.String("b")},
		&Literal{Value: value.String("c")},
	}}
	if got := e.Evaluate(threeArgs, ctx); !got.IsNull() {
		t.Errorf("starts_with/3 = %v, want null", got)
	}
}

func TestEvaluator_UnknownFunctionIsNull(t *testing.T) {
	e := NewEvaluator()
	node := &Call{Func: "frobnicate", Args: []Node{&Literal{Value: value.Int(1)}}}
	if got := e.Evaluate(node, value.NewContext()); !got.IsNull() {
		t.Errorf("unknown func = %v, want null", got)
	}
}

func TestEvaluator_TimeBetween(t *testing.T) {
	e := NewEvaluator()
	ctx := value.NewContext()

	node := func(at, start, end string) Node {
		return &Call{Func: "time_between", Args: []Node{
			&Literal{Value: value.String(at)},
			&Literal{Value: value.String(start)},
			&Literal{Value: value.String(end)},
		}}
	}

	if !e.Evaluate(node("10:30", "09:00", "17:00"), ctx).Bool() {
		t.Error("10:30 should be inside 09:00-17:00")
	}
	if e.Evaluate(node("18:00", "09:00", "17:00"), ctx).Bool() {
		t.Error("18:00 should be outside 09:00-17:00")
	}
	// Wrap-around window.
	if !e.Evaluate(node("23:15", "22:00", "06:00"), ctx).Bool() {
		t.Error("23:15 should be inside 22:00-06:00")
	}
	if !e.Evaluate(node("05:00", "22:00", "06:00"), ctx).Bool() {
		t.Error("05:00 should be inside 22:00-06:00")
	}
	if e.Evaluate(node("12:00", "22:00", "06:00"), ctx).Bool() {
		t.Error("12:00 should be outside 22:00-06:00")
	}
}

func TestEvaluator_DayOfWeek(t *testing.T) {
	e := NewEvaluator()
	ctx := value.NewContext()

	// 2024-01-06 was a Saturday (weekday 6).
	sat := time.Date(2024, 1, 6, 10, 0, 0, 0, time.Local).UnixMilli()
	node := &Call{Func: "day_of_week", Args: []Node{&Literal{Value: value.Int(sat)}}}
	if got := e.Evaluate(node, ctx).Int(); got != 6 {
		t.Errorf("day_of_week(sat) = %d, want 6", got)
	}
}

type stubHistory struct {
	samples map[string][]value.Value
}

func (s *stubHistory) LastN(name string, n int) []value.Value {
	h := s.samples[name]
	if len(h) > n {
		h = h[len(h)-n:]
	}
	return h
}

func TestEvaluator_HistoryAggregates(t *testing.T) {
	hist := &stubHistory{samples: map[string][]value.Value{
		"temp": {value.Int(10), value.Int(20), value.Int(30)},
	}}
	e := NewEvaluator(WithHistory(hist))
	ctx := value.NewContext()
	ctx.Set("temp", value.Int(30))

	avg := &Call{Func: "avg_last_n", Args: []Node{&Var{Name: "temp"}, &Literal{Value: value.Int(3)}}}
	if got := e.Evaluate(avg, ctx).Float(); got != 20 {
		t.Errorf("avg_last_n = %v, want 20", got)
	}

	max := &Call{Func: "max_last_n", Args: []Node{&Var{Name: "temp"}, &Literal{Value: value.Int(3)}}}
	if got := e.Evaluate(max, ctx).Float(); got != 30 {
		t.Errorf("max_last_n = %v, want 30", got)
	}

	trend := &Call{Func: "trend", Args: []Node{&Var{Name: "temp"}, &Literal{Value: value.Int(3)}}}
	if got := e.Evaluate(trend, ctx).Int(); got != 1 {
		t.Errorf("trend = %d, want 1", got)
	}
}

func TestEvaluator_HistoryFallbackToCurrentValue(t *testing.T) {
	e := NewEvaluator() // no provider
	ctx := value.NewContext()
	ctx.Set("temp", value.Int(25))

	avg := &Call{Func: "avg_last_n", Args: []Node{&Var{Name: "temp"}, &Literal{Value: value.Int(5)}}}
	if got := e.Evaluate(avg, ctx).Int(); got != 25 {
		t.Errorf("avg_last_n without provider = %d, want current value 25", got)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	raw := `{"op":"&&","left":{"op":">","left":"t","right":40},"right":{"func":"contains","args":["msg","hot"]}}`
	node := parseJSON(t, raw)

	rendered := ToValue(node)
	reparsed := Parse(rendered)

	ctx := value.NewContext()
	ctx.Set("t", value.Int(50))
	ctx.Set("msg", value.String("too hot"))
	// Bare strings parse as variable references, so "hot" is a variable too.
	ctx.Set("hot", value.String("hot"))
	e := NewEvaluator()

	if got, want := e.Evaluate(node, ctx), e.Evaluate(reparsed, ctx); !got.Equal(want) {
		t.Errorf("round-trip evaluation differs: %v vs %v", got, want)
	}
	if !e.Evaluate(reparsed, ctx).Bool() {
		t.Error("expression should evaluate true")
	}
}
