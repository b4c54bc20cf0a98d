package kitchensvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/fasttech/internal/dal/interfaces/imirrorrepo"
	"github.com/corray333/fasttech/internal/dal/interfaces/iorderfetcher"
	"github.com/corray333/fasttech/internal/service/models/event"
	"github.com/corray333/fasttech/internal/service/models/mirror"
	"github.com/corray333/fasttech/internal/service/models/order"
	"go.opentelemetry.io/otel"
)

// ErrMirrorNotFound is returned by the read operations when the kitchen has no copy of an order.
var ErrMirrorNotFound = errors.New("order mirror not found")

// KitchenService maintains the kitchen's mirror of orders from lifecycle events.
type KitchenService struct {
	mirrorRepo imirrorrepo.IMirrorRepository
	fetcher    iorderfetcher.IOrderFetcher
	now        func() time.Time
}

// option is a function that configures the KitchenService.
type option func(*KitchenService)

// MustNewKitchenService creates a new KitchenService.
func MustNewKitchenService(opts ...option) *KitchenService {
	s := &KitchenService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.mirrorRepo == nil || s.fetcher == nil {
		panic("kitchensvc: mirror repository and order fetcher are required")
	}

	return s
}

// WithMirrorRepository sets the mirror repository for the KitchenService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMirrorRepository(repo imirrorrepo.IMirrorRepository) option {
	return func(s *KitchenService) {
		s.mirrorRepo = repo
	}
}

// WithOrderFetcher sets the client used to hydrate missing mirrors.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderFetcher(fetcher iorderfetcher.IOrderFetcher) option {
	return func(s *KitchenService) {
		s.fetcher = fetcher
	}
}

// WithClock overrides time.Now.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *KitchenService) {
		s.now = now
	}
}

// HandleOrderCreated hydrates a missing mirror from the order-intake service, or accepts
// an existing one.
func (s *KitchenService) HandleOrderCreated(ctx context.Context, env event.Envelope) error {
	ctx, span := otel.Tracer("service").Start(ctx, "KitchenService.HandleOrderCreated")
	defer span.End()

	if _, ok := env.Payload.(event.OrderCreatedPayload); !ok {
		return fmt.Errorf("%w: %s carries %T", event.ErrMalformed, env.Type, env.Payload)
	}

	current, found, err := s.mirrorRepo.GetByID(ctx, env.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to get mirror: %w", err)
	}
	if found {
		return s.advance(ctx, current, mirror.StatusUpdate{Status: mirror.StatusAccepted, At: s.now().UTC()})
	}

	canonical, err := s.fetcher.FetchOrder(ctx, env.SubjectID)
	if err != nil {
		// The event is still acknowledged; the mirror stays absent until a later
		// order.created finds it missing again.
		slog.Error("Failed to fetch order for mirror", "error", err, "order_id", env.SubjectID)

		return nil
	}

	m := toMirror(canonical, s.now().UTC())
	inserted, err := s.mirrorRepo.Insert(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to insert mirror: %w", err)
	}
	if !inserted {
		slog.Warn("Mirror already present, insert skipped", "order_id", m.ID)

		return nil
	}

	slog.Info("Mirror created", "order_id", m.ID, "number", m.Number, "items", len(m.Items))

	return nil
}

// HandleOrderConfirmed starts preparation on an existing mirror. Missing mirrors are not hydrated here.
func (s *KitchenService) HandleOrderConfirmed(ctx context.Context, env event.Envelope) error {
	ctx, span := otel.Tracer("service").Start(ctx, "KitchenService.HandleOrderConfirmed")
	defer span.End()

	if _, ok := env.Payload.(event.OrderStatusChangedPayload); !ok {
		return fmt.Errorf("%w: %s carries %T", event.ErrMalformed, env.Type, env.Payload)
	}

	current, found, err := s.mirrorRepo.GetByID(ctx, env.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to get mirror: %w", err)
	}
	if !found {
		slog.Warn("Mirror not found for confirmed order", "order_id", env.SubjectID)

		return nil
	}

	return s.advance(ctx, current, mirror.StatusUpdate{Status: mirror.StatusPreparing, At: s.now().UTC()})
}

// HandleOrderCancelled cancels an existing mirror and keeps the reason.
func (s *KitchenService) HandleOrderCancelled(ctx context.Context, env event.Envelope) error {
	ctx, span := otel.Tracer("service").Start(ctx, "KitchenService.HandleOrderCancelled")
	defer span.End()

	p, ok := env.Payload.(event.OrderCancelledPayload)
	if !ok {
		return fmt.Errorf("%w: %s carries %T", event.ErrMalformed, env.Type, env.Payload)
	}

	current, found, err := s.mirrorRepo.GetByID(ctx, env.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to get mirror: %w", err)
	}
	if !found {
		slog.Warn("Mirror not found for cancelled order", "order_id", env.SubjectID)

		return nil
	}

	reason := p.Reason

	return s.advance(ctx, current, mirror.StatusUpdate{Status: mirror.StatusCancelled, At: s.now().UTC(), Reason: &reason})
}

// GetMirror returns the kitchen copy of an order.
func (s *KitchenService) GetMirror(ctx context.Context, id string) (mirror.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "KitchenService.GetMirror")
	defer span.End()

	m, found, err := s.mirrorRepo.GetByID(ctx, id)
	if err != nil {
		return mirror.Order{}, fmt.Errorf("failed to get mirror: %w", err)
	}
	if !found {
		return mirror.Order{}, ErrMirrorNotFound
	}

	return m, nil
}

// ListMirrors returns up to limit mirrors in the given status, oldest first.
func (s *KitchenService) ListMirrors(ctx context.Context, status mirror.Status, limit int) ([]mirror.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "KitchenService.ListMirrors")
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("unknown mirror status %q", status)
	}

	orders, err := s.mirrorRepo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrors: %w", err)
	}
	if orders == nil {
		orders = []mirror.Order{}
	}

	return orders, nil
}

// advance sets the status unless the mirror is already at or past it, which is what
// duplicate and late deliveries look like.
func (s *KitchenService) advance(ctx context.Context, current mirror.Order, u mirror.StatusUpdate) error {
	if !current.Status.CanAdvanceTo(u.Status) {
		slog.Info("Mirror status kept", "order_id", current.ID, "status", current.Status, "requested", u.Status)

		return nil
	}

	found, err := s.mirrorRepo.SetStatus(ctx, current.ID, u)
	if err != nil {
		return fmt.Errorf("failed to set mirror status: %w", err)
	}
	if !found {
		slog.Warn("Mirror disappeared before status update", "order_id", current.ID)

		return nil
	}

	slog.Info("Mirror status changed", "order_id", current.ID, "from", current.Status, "to", u.Status)

	return nil
}

func toMirror(o order.Order, now time.Time) mirror.Order {
	items := make([]mirror.Item, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, mirror.Item{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Notes:     item.Notes,
		})
	}

	return mirror.Order{
		ID:              o.ID,
		Number:          o.Number,
		CreatedAt:       o.CreatedAt,
		Items:           items,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		Total:           o.Total,
		Notes:           o.Notes,
		Status:          mirror.StatusPending,
		History:         []mirror.StatusChange{{Status: mirror.StatusPending, At: now}},
	}
}
