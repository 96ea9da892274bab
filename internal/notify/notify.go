// Package notify announces committed barrier transitions to gate controllers.
package notify

import (
	"context"
	"time"
)

// BarrierChange describes one committed transition. It is published after
// the corresponding event row exists.
type BarrierChange struct {
	BarrierID     string    `json:"barrera_id"`
	Name          string    `json:"nombre"`
	State         string    `json:"estado"`
	PreviousState string    `json:"estado_anterior"`
	EventID       string    `json:"evento_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher is best effort: failures are the implementation's to log.
type Publisher interface {
	BarrierChanged(ctx context.Context, c BarrierChange)
}

type Nop struct{}

func (Nop) BarrierChanged(context.Context, BarrierChange) {}
