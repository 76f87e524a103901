package behavior

import (
	"encoding/json"
	"fmt"

	"github.com/calloway/automata-core/internal/value"
)

// Parse builds a tree from its JSON document form:
//
//	{"root": <node>}
//	<node> := {"type": "action"|"condition", "name"?, "action"|"condition": str, "params"?: object}
//	        | {"type": "sequence"|"selector", "children": [<node>, ...]}
//	        | {"type": "parallel", "policy"?: str, "children": [...]}
//	        | {"type": "inverter"|"until_fail"|"until_success", "child": <node>}
//	        | {"type": "repeater", "repeat_count"?: int, "child": <node>}
//
// Leaves resolve their action/condition names against reg at tick time.
func Parse(data []byte, reg *Registry) (Node, error) {
	var doc value.Value
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	return ParseValue(doc, reg)
}

// ParseValue is Parse for an already-decoded document.
func ParseValue(doc value.Value, reg *Registry) (Node, error) {
	root := doc.Field("root")
	if root.IsNull() {
		return nil, fmt.Errorf("%w: missing root", ErrInvalidTree)
	}
	return parseNode(root, reg)
}

func parseNode(v value.Value, reg *Registry) (Node, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: node is not an object", ErrInvalidTree)
	}
	nodeType := v.Field("type").Str()

	switch nodeType {
	case "action":
		return &Action{
			Name:     leafName(v, nodeType),
			Ref:      v.Field("action").Str(),
			Params:   leafParams(v),
			registry: reg,
		}, nil

	case "condition":
		return &Condition{
			Name:     leafName(v, nodeType),
			Ref:      v.Field("condition").Str(),
			Params:   leafParams(v),
			registry: reg,
		}, nil

	case "sequence":
		children, err := parseChildren(v, reg)
		if err != nil {
			return nil, err
		}
		return &Sequence{Children: children}, nil

	case "selector":
		children, err := parseChildren(v, reg)
		if err != nil {
			return nil, err
		}
		return &Selector{Children: children}, nil

	case "parallel":
		children, err := parseChildren(v, reg)
		if err != nil {
			return nil, err
		}
		return &Parallel{
			Policy:   parsePolicy(v.Field("policy").Str()),
			Children: children,
		}, nil

	case "inverter":
		child, err := parseChild(v, reg)
		if err != nil {
			return nil, err
		}
		return &Inverter{Child: child}, nil

	case "repeater":
		child, err := parseChild(v, reg)
		if err != nil {
			return nil, err
		}
		count := -1
		if rc := v.Field("repeat_count"); rc.IsNumber() {
			count = int(rc.Int())
		}
		return &Repeater{Count: count, Child: child}, nil

	case "until_fail":
		child, err := parseChild(v, reg)
		if err != nil {
			return nil, err
		}
		return &UntilFail{Child: child}, nil

	case "until_success":
		child, err := parseChild(v, reg)
		if err != nil {
			return nil, err
		}
		return &UntilSuccess{Child: child}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}
}

func leafName(v value.Value, fallback string) string {
	if name := v.Field("name"); name.IsString() && name.Str() != "" {
		return name.Str()
	}
	return fallback
}

func leafParams(v value.Value) value.Value {
	if params := v.Field("params"); params.IsObject() {
		return params
	}
	return value.Object(nil)
}

func parseChildren(v value.Value, reg *Registry) ([]Node, error) {
	items := v.Field("children").Items()
	children := make([]Node, 0, len(items))
	for i, item := range items {
		child, err := parseNode(item, reg)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, child)
	}
	return children, nil
}

func parseChild(v value.Value, reg *Registry) (Node, error) {
	child := v.Field("child")
	if child.IsNull() {
		return nil, fmt.Errorf("%w: decorator missing child", ErrInvalidTree)
	}
	return parseNode(child, reg)
}

func parsePolicy(s string) ParallelPolicy {
	switch s {
	case "succeed_on_all":
		return SucceedOnAll
	case "fail_on_one":
		return FailOnOne
	case "fail_on_all":
		return FailOnAll
	default:
		return SucceedOnOne
	}
}

// ToValue renders a tree back into its document form, including the
// {"root": ...} wrapper. Defaults are normalised: parallel policies and
// repeat counts always appear explicitly.
func ToValue(root Node) value.Value {
	return value.Object(map[string]value.Value{
		"root": nodeToValue(root),
	})
}

func nodeToValue(n Node) value.Value {
	switch t := n.(type) {
	case *Action:
		return value.Object(map[string]value.Value{
			"type":   value.String("action"),
			"name":   value.String(t.Name),
			"action": value.String(t.Ref),
			"params": t.Params,
		})
	case *Condition:
		return value.Object(map[string]value.Value{
			"type":      value.String("condition"),
			"name":      value.String(t.Name),
			"condition": value.String(t.Ref),
			"params":    t.Params,
		})
	case *Sequence:
		return compositeToValue("sequence", t.Children, nil)
	case *Selector:
		return compositeToValue("selector", t.Children, nil)
	case *Parallel:
		policy := value.String(t.Policy.String())
		return compositeToValue("parallel", t.Children, &policy)
	case *Inverter:
		return decoratorToValue("inverter", t.Child, nil)
	case *Repeater:
		count := value.Int(int64(t.Count))
		return decoratorToValue("repeater", t.Child, &count)
	case *UntilFail:
		return decoratorToValue("until_fail", t.Child, nil)
	case *UntilSuccess:
		return decoratorToValue("until_success", t.Child, nil)
	default:
		return value.Null()
	}
}

func compositeToValue(nodeType string, children []Node, policy *value.Value) value.Value {
	items := make([]value.Value, len(children))
	for i, child := range children {
		items[i] = nodeToValue(child)
	}
	fields := map[string]value.Value{
		"type":     value.String(nodeType),
		"children": value.Array(items...),
	}
	if policy != nil {
		fields["policy"] = *policy
	}
	return value.Object(fields)
}

func decoratorToValue(nodeType string, child Node, count *value.Value) value.Value {
	fields := map[string]value.Value{
		"type": value.String(nodeType),
	}
	if child != nil {
		fields["child"] = nodeToValue(child)
	}
	if count != nil {
		fields["repeat_count"] = *count
	}
	return value.Object(fields)
}
