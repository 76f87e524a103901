package expr

import (
	"github.com/calloway/automata-core/internal/value"
)

// Parse builds an expression tree from its configuration form.
//
// The shape follows the rules config schema:
//
//	<expr> := literal
//	        | "var_name"
//	        | {"op": str, "left": <expr>, "right": <expr>}
//	        | {"func": str, "args": [<expr>, ...]}
//
// Bare strings are variable references wherever they appear, function
// arguments included, so this form has no string literal; a simple
// condition's "right" member is read as a literal instead. Objects
// carrying neither "op" nor "func" parse as literal values.
func Parse(v value.Value) Node {
	switch v.Kind() {
	case value.KindString:
		return &Var{Name: v.Str()}
	case value.KindObject:
		if op := v.Field("op"); op.IsString() {
			return &BinOp{
				Op:    op.Str(),
				Left:  parseChild(v, "left"),
				Right: parseChild(v, "right"),
			}
		}
		if fn := v.Field("func"); fn.IsString() {
			call := &Call{Func: fn.Str()}
			for _, arg := range v.Field("args").Items() {
				call.Args = append(call.Args, Parse(arg))
			}
			return call
		}
		return &Literal{Value: v}
	default:
		return &Literal{Value: v}
	}
}

func parseChild(v value.Value, field string) Node {
	child := v.Field(field)
	if child.IsNull() {
		return nil
	}
	return Parse(child)
}

// ToValue renders a tree back into its configuration form. Parsing the
// result yields an equivalent tree.
func ToValue(n Node) value.Value {
	switch t := n.(type) {
	case nil:
		return value.Null()
	case *Literal:
		return t.Value
	case *Var:
		return value.String(t.Name)
	case *BinOp:
		fields := map[string]value.Value{"op": value.String(t.Op)}
		if t.Left != nil {
			fields["left"] = ToValue(t.Left)
		}
		if t.Right != nil {
			fields["right"] = ToValue(t.Right)
		}
		return value.Object(fields)
	case *Call:
		args := make([]value.Value, len(t.Args))
		for i, arg := range t.Args {
			args[i] = ToValue(arg)
		}
		return value.Object(map[string]value.Value{
			"func": value.String(t.Func),
			"args": value.Array(args...),
		})
	default:
		return value.Null()
	}
}
