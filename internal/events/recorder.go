package events

import (
	"log"
	"time"

	"github.com/pingdeckhq/engine/pkg/types"
)

type Type string

const (
	// TypeStateChange is recorded on every session state transition.
	TypeStateChange Type = "StateChange"
	// TypeRoundComplete is recorded after a full scheduler round.
	TypeRoundComplete Type = "RoundComplete"
	// TypeUpdateDropped is recorded when a probe result arrives after
	// cancellation and is discarded instead of applied.
	TypeUpdateDropped Type = "UpdateDropped"
)

type Event struct {
	Type       Type               `json:"type"`
	Timestamp  time.Time          `json:"ts"`
	From       types.SessionState `json:"from,omitempty"`
	To         types.SessionState `json:"to,omitempty"`
	TargetID   string             `json:"target_id,omitempty"`
	Round      uint64             `json:"round,omitempty"`
	Elapsed    time.Duration      `json:"elapsed,omitempty"`
	Dispatched int                `json:"dispatched,omitempty"`
}

type Recorder interface {
	Record(event Event)
}

type NoopRecorder struct{}

func (NoopRecorder) Record(event Event) {}

type Multi struct {
	recorders []Recorder
}

func NewMulti(recorders ...Recorder) Multi {
	return Multi{recorders: recorders}
}

func (m Multi) Record(event Event) {
	for _, rec := range m.recorders {
		if rec != nil {
			rec.Record(event)
		}
	}
}

// LogRecorder writes events to a logger, one line per event.
type LogRecorder struct {
	Logger *log.Logger
}

func (r LogRecorder) Record(event Event) {
	if r.Logger == nil {
		return
	}
	switch event.Type {
	case TypeStateChange:
		r.Logger.Printf("session %s -> %s", event.From, event.To)
	case TypeRoundComplete:
		r.Logger.Printf("round %d complete: %d targets in %s", event.Round, event.Dispatched, event.Elapsed.Round(time.Millisecond))
	case TypeUpdateDropped:
		r.Logger.Printf("dropped late update for target %s", event.TargetID)
	default:
		r.Logger.Printf("event %s", event.Type)
	}
}
