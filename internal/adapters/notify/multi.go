package notify

import "github.com/Baldarello/localization-pro-sub001/internal/ports"

// Multi fans an event out to several emitters.
type Multi []ports.EventEmitter

func (m Multi) Emit(name string, payload any) {
	for _, e := range m {
		e.Emit(name, payload)
	}
}
