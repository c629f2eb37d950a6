package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/magelan-app/magelan/internal/domain/catalog"
	domain "github.com/magelan-app/magelan/internal/domain/order"
	domoutbox "github.com/magelan-app/magelan/internal/domain/outbox"
	dompay "github.com/magelan-app/magelan/internal/domain/payment"
	"github.com/magelan-app/magelan/internal/pkg/logging"
	"github.com/magelan-app/magelan/internal/pkg/metrics"
)

const (
	tracerName     = "magelan/order"
	spanPrefix     = "UC."
	publishTimeout = 300 * time.Millisecond
)

// Service is the order core. It owns the pending-cart lifecycle, payment
// orchestration against the external gateway, staff status changes and the
// stale-order sweep. Every operation re-reads current state from the
// repository; nothing is cached across calls.
type Service struct {
	orders   domain.Repository
	products catalog.Repository
	gateway  dompay.Gateway
	ids      IDGenerator
	locks    Locker
	bus      domoutbox.Publisher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewService(
	orders domain.Repository,
	products catalog.Repository,
	gateway dompay.Gateway,
	ids IDGenerator,
	locks Locker,
	bus domoutbox.Publisher,
	m *metrics.Metrics,
) *Service {
	if m == nil {
		m = metrics.Nop()
	}
	return &Service{
		orders:   orders,
		products: products,
		gateway:  gateway,
		ids:      ids,
		locks:    locks,
		bus:      bus,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
	}
}

// begin opens a span for the use case and returns a completion func that
// records the outcome on both the span and the RED metrics.
func (s *Service) begin(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := s.tracer.Start(ctx, spanPrefix+useCase, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.metrics.Observe(useCase, outcome, time.Since(start).Seconds())
	}
}

// GetOrCreatePendingOrder returns the customer's open cart, creating an empty
// one if none exists. The find-or-create sequence runs under a per-customer
// lock, and the repository's pending-uniqueness guard backstops it: a
// conflicting insert is resolved by re-reading the winner's cart.
func (s *Service) GetOrCreatePendingOrder(ctx context.Context, customerID string) (_ *domain.Order, err error) {
	ctx, done := s.begin(ctx, "order.get_or_create_pending")
	defer func() { done(err) }()

	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", domain.ErrNotFound)
	}

	unlock, err := s.locks.Lock(ctx, "order:pending:"+customerID)
	if err != nil {
		return nil, fmt.Errorf("order: acquire cart lock: %w", err)
	}
	defer unlock()

	existing, err := s.orders.FindPendingByCustomer(ctx, customerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("order: find pending: %w", err)
	}

	entity := domain.NewPending(s.ids.NewID(), customerID)
	if err := s.orders.SavePending(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Another writer created the cart first; use theirs.
			return s.orders.FindPendingByCustomer(ctx, customerID)
		}
		return nil, fmt.Errorf("order: save pending: %w", err)
	}

	logging.FromContext(ctx).Info("pending_order_created",
		zap.String("order_id", entity.ID),
		zap.String("customer_id", customerID),
	)
	return entity, nil
}

// AddProductToOrder puts quantity units of the product on the order,
// merging into an existing line item when the product is already there.
// Non-positive quantities are deliberately ignored without error. The
// read-mutate-save sequence runs under a per-order lock so concurrent
// mutations of the same cart never overwrite each other.
func (s *Service) AddProductToOrder(ctx context.Context, orderID, productID string, quantity int) (err error) {
	ctx, done := s.begin(ctx, "order.add_product",
		attribute.String("order.id", orderID),
		attribute.String("product.id", productID),
	)
	defer func() { done(err) }()

	if quantity <= 0 {
		return nil
	}

	unlock, err := s.locks.Lock(ctx, "order:items:"+orderID)
	if err != nil {
		return fmt.Errorf("order: acquire order lock: %w", err)
	}
	defer unlock()

	entity, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if entity.Status != domain.StatusPending {
		return fmt.Errorf("%w: items can only change while the order is pending", domain.ErrInvalidState)
	}

	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		return err
	}

	entity.AddProduct(s.ids.NewID(), product.ID, quantity, product.Price)

	if err := s.orders.Save(ctx, entity); err != nil {
		return fmt.Errorf("order: save: %w", err)
	}

	logging.FromContext(ctx).Info("product_added",
		zap.String("order_id", entity.ID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.String("amount", entity.Amount.String()),
	)
	return nil
}

// AddProductForCustomer is the cart-facing convenience: it finds or creates
// the customer's pending order, then adds the product to it.
func (s *Service) AddProductForCustomer(ctx context.Context, customerID, productID string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	entity, err := s.GetOrCreatePendingOrder(ctx, customerID)
	if err != nil {
		return err
	}
	return s.AddProductToOrder(ctx, entity.ID, productID, quantity)
}

// RemoveItem deletes a line item from the owning order. Only the order's
// customer may remove items from it, and only while the order is pending.
// The order is re-read under the per-order lock so the removal never races
// a concurrent cart mutation.
func (s *Service) RemoveItem(ctx context.Context, customerID, itemID string) (err error) {
	ctx, done := s.begin(ctx, "order.remove_item", attribute.String("item.id", itemID))
	defer func() { done(err) }()

	owner, err := s.orders.FindByItemID(ctx, itemID)
	if err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, "order:items:"+owner.ID)
	if err != nil {
		return fmt.Errorf("order: acquire order lock: %w", err)
	}
	defer unlock()

	entity, err := s.orders.FindByID(ctx, owner.ID)
	if err != nil {
		return err
	}
	if !entity.OwnedBy(customerID) {
		return fmt.Errorf("%w: item belongs to another customer's order", domain.ErrForbidden)
	}
	if entity.Status != domain.StatusPending {
		return fmt.Errorf("%w: items can only change while the order is pending", domain.ErrInvalidState)
	}

	if err := entity.RemoveItem(itemID); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, entity); err != nil {
		return fmt.Errorf("order: save: %w", err)
	}

	logging.FromContext(ctx).Info("item_removed",
		zap.String("order_id", entity.ID),
		zap.String("item_id", itemID),
		zap.String("amount", entity.Amount.String()),
	)
	return nil
}

// CalculateTotal sums unit price times quantity over the order's items.
func (s *Service) CalculateTotal(o *domain.Order) decimal.Decimal {
	if o == nil {
		return decimal.Zero
	}
	return o.Total()
}

// StartPayment finalizes the customer's pending cart for checkout: it stores
// the delivery details, pins the amount to the current cart total and obtains
// a payment from the gateway. The operation is idempotent; calling it again
// returns the payment already linked to the order, and a gateway-side
// duplicate (payment already exists for the order) is reconciled by adopting
// the existing payment instead of failing.
func (s *Service) StartPayment(ctx context.Context, customerID string, details domain.DeliveryDetails) (_ *dompay.Payment, err error) {
	ctx, done := s.begin(ctx, "order.start_payment", attribute.String("customer.id", customerID))
	defer func() { done(err) }()
	logger := logging.FromContext(ctx)

	entity, err := s.orders.FindPendingByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no pending order", domain.ErrInvalidState)
		}
		return nil, fmt.Errorf("order: find pending: %w", err)
	}

	if err := entity.BeginCheckout(details); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, entity); err != nil {
		return nil, fmt.Errorf("order: save: %w", err)
	}

	if entity.PaymentID != "" {
		existing, err := s.gateway.GetPayment(ctx, entity.PaymentID)
		if err != nil {
			return nil, err
		}
		logger.Info("payment_reused",
			zap.String("order_id", entity.ID),
			zap.String("payment_id", existing.ID),
		)
		return existing, nil
	}

	result, err := s.gateway.CreatePayment(ctx, entity.ID, entity.Amount, dompay.MethodCard)
	if err != nil {
		logger.Error("payment_create_failed",
			zap.String("order_id", entity.ID),
			zap.Error(err),
		)
		return nil, err
	}

	pay := result.Payment
	if result.AlreadyExists {
		pay, err = s.gateway.GetPaymentByOrder(ctx, entity.ID)
		if err != nil {
			return nil, err
		}
		logger.Info("payment_conflict_recovered",
			zap.String("order_id", entity.ID),
			zap.String("payment_id", pay.ID),
		)
	}

	if err := entity.AttachPayment(pay.ID); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, entity); err != nil {
		return nil, fmt.Errorf("order: save: %w", err)
	}

	logger.Info("payment_started",
		zap.String("order_id", entity.ID),
		zap.String("payment_id", pay.ID),
		zap.String("amount", entity.Amount.String()),
	)
	return pay, nil
}

// ProcessPayment asks the gateway to capture the payment, then reflects the
// result on the order that references it. A successful capture advances the
// order to SUBMITTED; any other gateway status leaves the status untouched.
// The order is persisted on both branches.
func (s *Service) ProcessPayment(ctx context.Context, paymentID string) (_ *dompay.Payment, err error) {
	ctx, done := s.begin(ctx, "order.process_payment", attribute.String("payment.id", paymentID))
	defer func() { done(err) }()
	logger := logging.FromContext(ctx)

	updated, err := s.gateway.ProcessPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	entity, err := s.orders.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no order references payment %s", domain.ErrInvalidState, paymentID)
		}
		return nil, fmt.Errorf("order: find by payment: %w", err)
	}

	submitted := false
	if updated.Outcome() == dompay.OutcomeSucceeded && entity.Status == domain.StatusPending {
		if err := entity.Submit(); err != nil {
			return nil, err
		}
		submitted = true
	}

	if submitted {
		err = s.orders.UpdateStatusGuarded(ctx, entity, domain.StatusPending)
	} else {
		err = s.orders.Save(ctx, entity)
	}
	if err != nil {
		return nil, fmt.Errorf("order: save: %w", err)
	}

	if submitted {
		s.publishSubmitted(ctx, entity)
		logger.Info("order_submitted",
			zap.String("order_id", entity.ID),
			zap.String("payment_id", paymentID),
		)
	} else {
		logger.Info("payment_not_final",
			zap.String("order_id", entity.ID),
			zap.String("payment_id", paymentID),
			zap.String("payment_status", updated.Status),
		)
	}
	return updated, nil
}

// GetPayment returns the gateway's current view of a payment.
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*dompay.Payment, error) {
	return s.gateway.GetPayment(ctx, paymentID)
}

// ChangeStaffOrderStatus applies a staff-initiated transition. Staff may only
// confirm submitted orders and deliver confirmed ones; everything else is an
// invalid state change. The guarded update makes a racing writer lose.
func (s *Service) ChangeStaffOrderStatus(ctx context.Context, orderID string, target domain.Status) (err error) {
	ctx, done := s.begin(ctx, "order.staff_status_change",
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", string(target)),
	)
	defer func() { done(err) }()

	if target != domain.StatusConfirmed && target != domain.StatusDelivered {
		return fmt.Errorf("%w: unsupported staff status change to %s", domain.ErrInvalidState, target)
	}

	entity, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	expected := entity.Status
	if err := entity.TransitionTo(target); err != nil {
		return err
	}
	if err := s.orders.UpdateStatusGuarded(ctx, entity, expected); err != nil {
		return fmt.Errorf("order: guarded update: %w", err)
	}

	logging.FromContext(ctx).Info("staff_status_changed",
		zap.String("order_id", entity.ID),
		zap.String("from", string(expected)),
		zap.String("to", string(target)),
	)
	return nil
}

// CancelOrder hard-deletes a pending cart. Only the owning customer may
// cancel, and only while the order is still PENDING.
func (s *Service) CancelOrder(ctx context.Context, orderID, customerID string) (err error) {
	ctx, done := s.begin(ctx, "order.cancel", attribute.String("order.id", orderID))
	defer func() { done(err) }()

	entity, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !entity.OwnedBy(customerID) {
		return fmt.Errorf("%w: order belongs to another customer", domain.ErrForbidden)
	}
	if !entity.Deletable() {
		return fmt.Errorf("%w: only pending orders can be cancelled", domain.ErrInvalidState)
	}

	if err := s.orders.DeleteByID(ctx, entity.ID); err != nil {
		return fmt.Errorf("order: delete: %w", err)
	}

	logging.FromContext(ctx).Info("order_cancelled",
		zap.String("order_id", entity.ID),
		zap.String("customer_id", customerID),
	)
	return nil
}

// GetOrderByID loads a single order with its items.
func (s *Service) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListOrdersByStatus returns orders in the given status, newest first.
func (s *Service) ListOrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return s.orders.FindByStatus(ctx, status)
}

// ListPastOrders returns the customer's submitted-and-later orders, newest first.
func (s *Service) ListPastOrders(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.orders.FindPastByCustomer(ctx, customerID)
}

// ListActiveProducts returns the menu entries currently available for ordering.
func (s *Service) ListActiveProducts(ctx context.Context) ([]*catalog.Product, error) {
	return s.products.ListActive(ctx)
}

// AutoDeliverStale advances every CONFIRMED order created before now minus
// staleAfter to DELIVERED. Staleness is measured from order creation time,
// matching the platform's established behavior. The sweep is idempotent: a
// delivered order no longer matches the query, and the guarded update makes
// the sweep lose quietly against a concurrent staff change.
func (s *Service) AutoDeliverStale(ctx context.Context, staleAfter time.Duration) (_ int, err error) {
	ctx, done := s.begin(ctx, "order.auto_deliver_stale")
	defer func() { done(err) }()
	logger := logging.FromContext(ctx)

	cutoff := time.Now().UTC().Add(-staleAfter)
	stale, err := s.orders.FindByStatusOlderThan(ctx, domain.StatusConfirmed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("order: find stale confirmed: %w", err)
	}
	if len(stale) == 0 {
		logger.Debug("auto_deliver_noop")
		return 0, nil
	}

	delivered := 0
	for _, entity := range stale {
		if err := entity.Deliver(); err != nil {
			logger.Warn("auto_deliver_skip",
				zap.String("order_id", entity.ID),
				zap.Error(err),
			)
			continue
		}
		if err := s.orders.UpdateStatusGuarded(ctx, entity, domain.StatusConfirmed); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// A staff change won the race; nothing to do.
				continue
			}
			return delivered, fmt.Errorf("order: guarded update: %w", err)
		}
		delivered++
		s.metrics.AutoDelivered.Inc()
	}

	logger.Info("auto_deliver_done",
		zap.Int("matched", len(stale)),
		zap.Int("delivered", delivered),
	)
	return delivered, nil
}

func (s *Service) publishSubmitted(ctx context.Context, entity *domain.Order) {
	if s.bus == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.bus.Publish(pubCtx, domain.NewOrderSubmittedEvent(entity)); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			zap.String("event", "order.submitted"),
			zap.String("order_id", entity.ID),
			zap.Error(err),
		)
	}
}
