package notify

import "github.com/npole/herodispatch/core/model"

// Notifier delivers a completion side effect. Failures must never roll back
// the completion transition, so no error is returned to the caller.
type Notifier interface {
	DeliveryCompleted(req model.GiftRequest, hero model.Hero)
}

// Nop is a Notifier that does nothing.
type Nop struct{}

func (Nop) DeliveryCompleted(model.GiftRequest, model.Hero) {}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) DeliveryCompleted(req model.GiftRequest, hero model.Hero) {
	for _, n := range m {
		n.DeliveryCompleted(req, hero)
	}
}
