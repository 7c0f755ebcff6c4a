package notify

import (
	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/infra/logger"
)

// LogNotifier announces completed deliveries on the structured log. It stands
// in for real email/SMS/push channels.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.New("notify")}
}

func (n *LogNotifier) DeliveryCompleted(req model.GiftRequest, hero model.Hero) {
	fields := map[string]any{
		"hero":  hero.Name,
		"child": req.ChildName,
		"city":  req.City,
		"gift":  req.Gift,
		"price": req.GiftPrice,
	}
	if req.CompletedAt != nil {
		fields["delivered_at"] = *req.CompletedAt
	}
	n.log.Debugw("gift delivered", fields)
	n.log.Infof("delivered %q to %s in %s by %s", req.Gift, req.ChildName, req.City, hero.Name)
}
