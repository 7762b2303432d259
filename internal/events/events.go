package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TypeRunStarted   = "run_started"
	TypeRunCompleted = "run_completed"
	TypePing         = "ping"
)

type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(runID, typ string, v int, data any) []byte {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:    typ,
		Version: v,
		At:      time.Now().UTC(),
		RunID:   runID,
		Data:    raw,
	}
	b, _ := json.Marshal(e)
	return b
}

type Publisher interface {
	Publish(ctx context.Context, evt []byte) error
}

type Noop struct{}

func (Noop) Publish(context.Context, []byte) error { return nil }

// Fanout publishes to every target and returns the first error after trying all.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt []byte) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}
