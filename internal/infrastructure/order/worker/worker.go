package worker

import (
	"context"

	"go.uber.org/zap"

	domorder "github.com/magelan-app/magelan/internal/domain/order"
	domoutbox "github.com/magelan-app/magelan/internal/domain/outbox"
)

// Worker reacts to order lifecycle events. Today it only records submissions;
// notification fanout (kitchen display, customer email) hangs off this hook.
type Worker struct {
	subscriber domoutbox.Subscriber
	log        *zap.Logger
}

func New(subscriber domoutbox.Subscriber, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.L()
	}
	return &Worker{
		subscriber: subscriber,
		log:        logger.With(zap.String("component", "order_worker")),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderSubmittedEvent{}.EventName(), w.handleOrderSubmitted)
}

func (w *Worker) handleOrderSubmitted(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	evt, ok := e.(domorder.OrderSubmittedEvent)
	if !ok {
		return nil
	}
	w.log.Info("order_submitted_event",
		zap.String("order_id", evt.OrderID),
		zap.String("customer_id", evt.CustomerID),
		zap.String("amount", evt.Amount.String()),
	)
	return nil
}
