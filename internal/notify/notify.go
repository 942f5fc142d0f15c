// Package notify fans alert notifications out to the registered senders.
// Delivery is best effort: a failing sender is logged and skipped.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"coinpulse/internal/models"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

type Notifier struct {
	senders []Sender
	logger  *zap.Logger
}

func NewNotifier(logger *zap.Logger, senders ...Sender) *Notifier {
	return &Notifier{senders: senders, logger: logger}
}

// AlertFired dispatches exactly one notification for a newly-triggered
// alert. The evaluator guarantees each alert reaches here at most once.
func (n *Notifier) AlertFired(ctx context.Context, alert models.Alert, price float64) {
	title := fmt.Sprintf("Price alert: %s %s %.6g", alert.AssetID, alert.Direction, alert.TargetPrice)
	message := fmt.Sprintf("%s is now %.6g USD, crossing your %s %.6g threshold",
		alert.AssetID, price, alert.Direction, alert.TargetPrice)

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Warn("notification delivery failed",
				zap.String("sender", s.Name()),
				zap.String("alert", alert.ID),
				zap.Error(err))
		}
	}
}
