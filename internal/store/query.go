package store

import (
	"strings"
	"time"

	"github.com/calloway/automata-core/internal/value"
)

// Condition is one predicate of a record query.
//
// Field addresses the record envelope (id, type, source, timestamp) or
// a dotted path into the data payload ("data.reading.celsius").
// Operators: ==, !=, >, >=, <, <=, contains, starts_with, ends_with.
type Condition struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value value.Value `json:"value"`
}

// Cond is shorthand for building a Condition.
func Cond(field, op string, v value.Value) Condition {
	return Condition{Field: field, Op: op, Value: v}
}

// matches reports whether the record satisfies every condition.
func matches(rec Record, conditions []Condition) bool {
	for _, cond := range conditions {
		if !matchOne(rec, cond) {
			return false
		}
	}
	return true
}

func matchOne(rec Record, cond Condition) bool {
	field := fieldValue(rec, cond.Field)

	switch cond.Op {
	case "==":
		return field.Equal(cond.Value)
	case "!=":
		return !field.Equal(cond.Value)
	case ">", "<", ">=", "<=":
		c, ok := field.Compare(cond.Value)
		if !ok {
			return false
		}
		switch cond.Op {
		case ">":
			return c > 0
		case "<":
			return c < 0
		case ">=":
			return c >= 0
		default:
			return c <= 0
		}
	case "contains":
		return field.IsString() && cond.Value.IsString() &&
			strings.Contains(field.Str(), cond.Value.Str())
	case "starts_with":
		return field.IsString() && cond.Value.IsString() &&
			strings.HasPrefix(field.Str(), cond.Value.Str())
	case "ends_with":
		return field.IsString() && cond.Value.IsString() &&
			strings.HasSuffix(field.Str(), cond.Value.Str())
	default:
		return false
	}
}

// fieldValue resolves a condition field against the record. Timestamps
// surface as epoch milliseconds so numeric comparisons apply.
func fieldValue(rec Record, field string) value.Value {
	switch field {
	case "id":
		return value.String(rec.ID)
	case "type":
		return value.String(rec.Type)
	case "source":
		return value.String(rec.Source)
	case "timestamp":
		return value.Int(rec.Timestamp.UnixMilli())
	}
	if path, ok := strings.CutPrefix(field, "data."); ok {
		return dataPath(rec.Data, path)
	}
	return value.Null()
}

// dataPath walks a dotted path through nested data objects.
func dataPath(v value.Value, path string) value.Value {
	current := v
	for _, part := range strings.Split(path, ".") {
		if !current.IsObject() {
			return value.Null()
		}
		current = current.Field(part)
	}
	return current
}

// TimestampValue renders a time as the Value form used in timestamp
// conditions.
func TimestampValue(t time.Time) value.Value {
	return value.Int(t.UnixMilli())
}
