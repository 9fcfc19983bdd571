// Package notify provides event emitter adapters. Events are delivered
// fire-and-forget after the owning mutation has been persisted; no
// emitter here is awaited for correctness.
package notify

import "go.uber.org/zap"

// LogEmitter mirrors events to the structured log.
type LogEmitter struct {
	log *zap.Logger
}

func NewLogEmitter(log *zap.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(name string, payload any) {
	e.log.Info("event", zap.String("name", name), zap.Any("payload", payload))
}
