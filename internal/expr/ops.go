package expr

import (
	"math"
	"strings"

	"github.com/calloway/automata-core/internal/value"
)

// applyBinOp dispatches a binary operator over two evaluated operands.
//
// Type mismatches resolve to null for arithmetic and to false for
// comparisons; nothing here returns an error.
func applyBinOp(op string, left, right value.Value) value.Value {
	switch op {
	case "+":
		return add(left, right)
	case "-":
		return arith(left, right, func(a, b float64) float64 { return a - b })
	case "*":
		return arith(left, right, func(a, b float64) float64 { return a * b })
	case "/":
		return divide(left, right)
	case "%":
		return modulo(left, right)
	case "==":
		return value.Bool(left.Equal(right))
	case "!=":
		return value.Bool(!left.Equal(right))
	case ">":
		return compare(left, right, func(c int) bool { return c > 0 })
	case "<":
		return compare(left, right, func(c int) bool { return c < 0 })
	case ">=":
		return compare(left, right, func(c int) bool { return c >= 0 })
	case "<=":
		return compare(left, right, func(c int) bool { return c <= 0 })
	case "&&":
		return value.Bool(left.Truthy() && right.Truthy())
	case "||":
		return value.Bool(left.Truthy() || right.Truthy())
	default:
		return value.Null()
	}
}

// add handles numeric addition and string concatenation.
func add(a, b value.Value) value.Value {
	if a.IsNumber() && b.IsNumber() {
		return numeric(a, b, a.Float()+b.Float())
	}
	if a.IsString() && b.IsString() {
		return value.String(a.Str() + b.Str())
	}
	return value.Null()
}

func arith(a, b value.Value, f func(a, b float64) float64) value.Value {
	if !a.IsNumber() || !b.IsNumber() {
		return value.Null()
	}
	return numeric(a, b, f(a.Float(), b.Float()))
}

func divide(a, b value.Value) value.Value {
	if !a.IsNumber() || !b.IsNumber() || b.Float() == 0 {
		return value.Null()
	}
	return value.Float(a.Float() / b.Float())
}

func modulo(a, b value.Value) value.Value {
	if !a.IsNumber() || !b.IsNumber() || b.Float() == 0 {
		return value.Null()
	}
	return value.Float(math.Mod(a.Float(), b.Float()))
}

// numeric keeps int-ness when both operands were ints and the result is
// whole, matching how config literals compare against sensor readings.
func numeric(a, b value.Value, result float64) value.Value {
	if a.Kind() == value.KindInt && b.Kind() == value.KindInt && result == math.Trunc(result) {
		return value.Int(int64(result))
	}
	return value.Float(result)
}

func compare(a, b value.Value, pred func(int) bool) value.Value {
	c, ok := a.Compare(b)
	if !ok {
		return value.Bool(false)
	}
	return value.Bool(pred(c))
}

// String predicate functions.

func stringContains(haystack, needle value.Value) value.Value {
	if !haystack.IsString() || !needle.IsString() {
		return value.Bool(false)
	}
	return value.Bool(strings.Contains(haystack.Str(), needle.Str()))
}

func stringStartsWith(s, prefix value.Value) value.Value {
	if !s.IsString() || !prefix.IsString() {
		return value.Bool(false)
	}
	return value.Bool(strings.HasPrefix(s.Str(), prefix.Str()))
}

func stringEndsWith(s, suffix value.Value) value.Value {
	if !s.IsString() || !suffix.IsString() {
		return value.Bool(false)
	}
	return value.Bool(strings.HasSuffix(s.Str(), suffix.Str()))
}
