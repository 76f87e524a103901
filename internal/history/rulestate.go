package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/calloway/automata-core/internal/rules"
	"github.com/calloway/automata-core/internal/store"
	"github.com/calloway/automata-core/internal/value"
)

// ruleStateRecordID is the fixed record id holding the engine's rule
// state snapshot. One record per deployment keeps restore trivial.
const ruleStateRecordID = "rule-state"

// TypeRuleState is the record type of the snapshot.
const TypeRuleState = "rule_state"

// SaveRuleState persists per-rule fire state so one-shot rules stay
// fired across restarts.
func SaveRuleState(ctx context.Context, storage store.Storage, state map[string]rules.Snapshot) error {
	fields := make(map[string]value.Value, len(state))
	for id, snap := range state {
		fields[id] = value.Object(map[string]value.Value{
			"last_fire_ms": value.Int(int64(snap.LastFireMS)),
			"disabled":     value.Bool(snap.Disabled),
		})
	}
	data := value.Object(fields)

	err := storage.Update(ctx, ruleStateRecordID, data)
	if errors.Is(err, store.ErrRecordNotFound) {
		err = storage.Insert(ctx, store.Record{
			ID:     ruleStateRecordID,
			Type:   TypeRuleState,
			Source: "engine",
			Data:   data,
		})
	}
	if err != nil {
		return fmt.Errorf("saving rule state: %w", err)
	}
	return nil
}

// LoadRuleState reads the persisted snapshot. A missing record returns
// an empty map, not an error.
func LoadRuleState(ctx context.Context, storage store.Storage) (map[string]rules.Snapshot, error) {
	rec, err := storage.FindByID(ctx, ruleStateRecordID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return map[string]rules.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading rule state: %w", err)
	}

	state := make(map[string]rules.Snapshot)
	for id, entry := range rec.Data.Fields() {
		state[id] = rules.Snapshot{
			LastFireMS: uint64(entry.Field("last_fire_ms").Int()),
			Disabled:   entry.Field("disabled").Bool(),
		}
	}
	return state, nil
}
