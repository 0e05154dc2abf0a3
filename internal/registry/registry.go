// Package registry owns the mutable per-target state for a session:
// an arena of records addressed by a stable id, replaced wholesale
// between sessions and mutated only through the engine's serialized
// update path. External observers get read-only snapshots.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pingdeckhq/engine/pkg/types"
)

type record struct {
	id     string
	value  string
	family types.Family
	note   string

	outcome      types.Outcome
	successCount uint64
	failureCount uint64
	failureRate  float64
}

// Registry holds the target arena and the session-wide aggregate
// counters derived from it. The aggregate is recomputed after every
// mutation so readers always see a consistent pair.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*record
	totals  types.Totals
}

func New() *Registry {
	return &Registry{records: make(map[string]*record)}
}

// Reset replaces the whole target set. Each target gets a fresh id,
// zeroed counters and the in-progress status.
func (r *Registry) Reset(specs []types.TargetSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = make([]string, 0, len(specs))
	r.records = make(map[string]*record, len(specs))
	for _, spec := range specs {
		id := uuid.NewString()
		r.order = append(r.order, id)
		r.records[id] = &record{
			id:      id,
			value:   spec.Value,
			family:  spec.Family,
			note:    spec.Note,
			outcome: types.Outcome{Kind: types.KindProbing},
		}
	}
	r.recomputeLocked()
}

// ResetCounters zeroes every target's statistics and stamps the
// in-progress status, keeping the target set itself. Used when a fresh
// run starts over the same targets.
func (r *Registry) ResetCounters() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		rec.successCount = 0
		rec.failureCount = 0
		rec.failureRate = 0
		rec.outcome = types.Outcome{Kind: types.KindProbing}
	}
	r.recomputeLocked()
}

// IDs returns the target ids in registry order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Spec returns the immutable description of one target.
func (r *Registry) Spec(id string) (types.TargetSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return types.TargetSpec{}, false
	}
	return types.TargetSpec{Value: rec.value, Family: rec.family, Note: rec.note}, true
}

// Record applies one completed probe outcome: success and genuine
// failure kinds bump their counters and the failure rate; any other
// kind only replaces the status label. Unknown ids are ignored.
func (r *Registry) Record(id string, outcome types.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return
	}

	rec.outcome = outcome
	switch {
	case outcome.Kind.Success():
		rec.successCount++
	case outcome.Kind.Failure():
		rec.failureCount++
	}
	rec.failureRate = failureRate(rec.successCount, rec.failureCount)
	r.recomputeLocked()
}

// StampInFlight replaces the status of every target still showing a
// transient placeholder label, leaving counters and settled outcomes
// untouched. Used by pause, stop and natural completion; a stop after
// a pause must overwrite the earlier Paused stamp.
func (r *Registry) StampInFlight(kind types.OutcomeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.outcome.Kind.Transient() {
			rec.outcome = types.Outcome{Kind: kind}
		}
	}
	r.recomputeLocked()
}

// Clear zeroes every target's counters and stamps all of them with the
// given status.
func (r *Registry) Clear(kind types.OutcomeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		rec.successCount = 0
		rec.failureCount = 0
		rec.failureRate = 0
		rec.outcome = types.Outcome{Kind: kind}
	}
	r.recomputeLocked()
}

// Totals returns the session-wide reachable/failed counters.
func (r *Registry) Totals() types.Totals {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals
}

// Snapshot returns read-only copies of every target in registry order.
func (r *Registry) Snapshot() []types.TargetSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.TargetSnapshot, 0, len(r.order))
	for _, id := range r.order {
		rec := r.records[id]
		out = append(out, types.TargetSnapshot{
			ID:           rec.id,
			Value:        rec.value,
			Family:       rec.family,
			Note:         rec.note,
			Outcome:      rec.outcome,
			SuccessCount: rec.successCount,
			FailureCount: rec.failureCount,
			FailureRate:  rec.failureRate,
		})
	}
	return out
}

// recomputeLocked rescans the arena and rebuilds the aggregate pair,
// counting only targets whose last outcome is a settled success or a
// genuine failure.
func (r *Registry) recomputeLocked() {
	var totals types.Totals
	for _, rec := range r.records {
		switch {
		case rec.outcome.Kind.Success():
			totals.Reachable++
		case rec.outcome.Kind.Failure():
			totals.Failed++
		}
	}
	r.totals = totals
}

func failureRate(success, failure uint64) float64 {
	total := success + failure
	if total == 0 {
		return 0
	}
	return 100 * float64(failure) / float64(total)
}
