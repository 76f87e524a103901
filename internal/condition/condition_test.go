package condition

import (
	"encoding/json"
	"testing"

	"github.com/calloway/automata-core/internal/expr"
	"github.com/calloway/automata-core/internal/value"
)

func parseCond(t *testing.T, raw string) *Condition {
	t.Helper()
	var v value.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	c := Parse(v)
	if c == nil {
		t.Fatalf("Parse(%q) = nil", raw)
	}
	return c
}

func TestCondition_Simple(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("t", value.Int(45))
	e := expr.NewEvaluator()

	tests := []struct {
		raw  string
		want bool
	}{
		{`{"left":"t","op":">","right":40}`, true},
		{`{"left":"t","op":"<","right":40}`, false},
		{`{"left":"t","op":"==","right":45}`, true},
		{`{"left":"t","op":"!=","right":45}`, false},
		{`{"left":"t","op":">=","right":45}`, true},
		{`{"left":"t","op":"<=","right":44}`, false},
		// Missing variable reads null; ordering against a number is false.
		{`{"left":"absent","op":">","right":0}`, false},
		{`{"left":"absent","op":"==","right":null}`, true},
		// Cross-type ordering is false.
		{`{"left":"t","op":">","right":"forty"}`, false},
	}
	for _, tt := range tests {
		if got := parseCond(t, tt.raw).Eval(e, ctx); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCondition_AllShortCircuit(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("a", value.Int(1))
	ctx.Set("b", value.Int(2))
	e := expr.NewEvaluator()

	c := parseCond(t, `{"all":[
		{"left":"a","op":"==","right":1},
		{"left":"b","op":"==","right":2}
	]}`)
	if !c.Eval(e, ctx) {
		t.Error("all-true should be true")
	}

	c = parseCond(t, `{"all":[
		{"left":"a","op":"==","right":9},
		{"left":"b","op":"==","right":2}
	]}`)
	if c.Eval(e, ctx) {
		t.Error("all with a false child should be false")
	}
}

func TestCondition_Any(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("a", value.Int(1))
	e := expr.NewEvaluator()

	c := parseCond(t, `{"any":[
		{"left":"a","op":"==","right":9},
		{"left":"a","op":"==","right":1}
	]}`)
	if !c.Eval(e, ctx) {
		t.Error("any with a true child should be true")
	}

	c = parseCond(t, `{"any":[
		{"left":"a","op":"==","right":8},
		{"left":"a","op":"==","right":9}
	]}`)
	if c.Eval(e, ctx) {
		t.Error("any with no true child should be false")
	}
}

func TestCondition_EmptyCompositesAreFalse(t *testing.T) {
	ctx := value.NewContext()
	e := expr.NewEvaluator()

	if All().Eval(e, ctx) {
		t.Error("empty all should be false")
	}
	if Any().Eval(e, ctx) {
		t.Error("empty any should be false")
	}
}

func TestCondition_Nested(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("t", value.Int(45))
	ctx.Set("mode", value.String("auto"))
	e := expr.NewEvaluator()

	c := parseCond(t, `{"all":[
		{"left":"mode","op":"==","right":"auto"},
		{"any":[
			{"left":"t","op":">","right":50},
			{"left":"t","op":">","right":40}
		]}
	]}`)
	if !c.Eval(e, ctx) {
		t.Error("nested composite should be true")
	}
}

func TestCondition_Expression(t *testing.T) {
	ctx := value.NewContext()
	ctx.Set("t", value.Int(45))
	ctx.Set("h", value.Int(80))
	e := expr.NewEvaluator()

	c := parseCond(t, `{"expression":{"op":"&&",
		"left":{"op":">","left":"t","right":40},
		"right":{"op":">","left":"h","right":70}}}`)
	if !c.Eval(e, ctx) {
		t.Error("expression condition should be true")
	}

	// Non-bool expression results coerce by truthiness.
	c = parseCond(t, `{"expression":{"op":"+","left":"t","right":0}}`)
	if !c.Eval(e, ctx) {
		t.Error("non-zero numeric expression should coerce true")
	}
	c = parseCond(t, `{"expression":{"op":"-","left":"t","right":45}}`)
	if c.Eval(e, ctx) {
		t.Error("zero numeric expression should coerce false")
	}
}

func TestCondition_NilIsFalse(t *testing.T) {
	var c *Condition
	if c.Eval(expr.NewEvaluator(), value.NewContext()) {
		t.Error("nil condition should be false")
	}
}
