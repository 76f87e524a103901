package rules

import (
	"encoding/json"
	"fmt"

	"github.com/calloway/automata-core/internal/condition"
	"github.com/calloway/automata-core/internal/value"
)

// Load parses a rules document and replaces the engine's rule set.
//
// Document shape:
//
//	{"rules": [
//	  {"id": str, "when": <condition>, "do": [{"action": str, "params": object}, ...],
//	   "mode"?: "once"|"repeat", "throttle_ms"?: int, "priority"?: int, "group"?: str},
//	  ...
//	]}
//
// On any parse error the previous rule set (and group state) is kept and
// the error is returned wrapped in ErrInvalidConfig where appropriate.
// A successful load resets group state and per-rule fire state.
func (e *Engine) Load(data []byte) error {
	var doc value.Value
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return e.LoadValue(doc)
}

// LoadValue is Load for an already-decoded document. Used by the config
// hot-reload path, which parses once and feeds multiple consumers.
func (e *Engine) LoadValue(doc value.Value) error {
	entries := doc.Field("rules")
	if !entries.IsArray() {
		return fmt.Errorf("%w: missing rules array", ErrInvalidConfig)
	}

	parsed := make([]*Rule, 0, len(entries.Items()))
	seen := make(map[string]struct{}, len(entries.Items()))
	for i, entry := range entries.Items() {
		rule, err := parseRule(entry)
		if err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if _, dup := seen[rule.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, rule.ID)
		}
		seen[rule.ID] = struct{}{}
		parsed = append(parsed, rule)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = parsed
	e.groups = make(map[string]bool)
	e.sortLocked()
	e.logger.Info("rules loaded", "count", len(parsed))
	return nil
}

func parseRule(v value.Value) (*Rule, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: entry is not an object", ErrInvalidConfig)
	}
	id := v.Field("id")
	if !id.IsString() || id.Str() == "" {
		return nil, ErrMissingID
	}

	rule := &Rule{
		ID:       id.Str(),
		Priority: DefaultPriority,
	}

	if when := v.Field("when"); !when.IsNull() {
		rule.Condition = condition.Parse(when)
	}

	if do := v.Field("do"); do.IsArray() {
		for _, step := range do.Items() {
			name := step.Field("action")
			if !name.IsString() || name.Str() == "" {
				continue
			}
			params := step.Field("params")
			if !params.IsObject() {
				params = value.Object(nil)
			}
			rule.Actions = append(rule.Actions, ActionStep{
				Name:   name.Str(),
				Params: params,
			})
		}
	}

	if mode := v.Field("mode"); mode.IsString() && mode.Str() == "once" {
		rule.Mode = ModeOnce
	}
	if throttle := v.Field("throttle_ms"); throttle.IsNumber() && throttle.Int() > 0 {
		rule.ThrottleMS = uint64(throttle.Int())
	}
	if prio := v.Field("priority"); prio.IsNumber() {
		rule.Priority = clampPriority(int(prio.Int()))
	}
	if group := v.Field("group"); group.IsString() {
		rule.Group = group.Str()
	}

	return rule, nil
}
