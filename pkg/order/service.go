// Package order implements checkout of a session basket into a persisted
// order, manual order maintenance and the order status gate.
package order

import (
	"context"
	"fmt"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/pricing"
	"github.com/example/shopdesk/pkg/repository"
	"go.uber.org/zap"
)

type Repository interface {
	CreateWithLines(ctx context.Context, order *models.Order, lines []models.OrderProduct) error
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
	SetOrderOwner(ctx context.Context, id uint64, userID *uint64) error
	TransitionStatus(ctx context.Context, id uint64, from, to models.OrderStatus) (bool, error)
	AddLine(ctx context.Context, line *models.OrderProduct) error
	GetLine(ctx context.Context, orderID, lineID uint64) (*models.OrderProduct, error)
	UpdateLine(ctx context.Context, line *models.OrderProduct) error
	DeleteLine(ctx context.Context, orderID, lineID uint64) error
}

type Catalog interface {
	pricing.ProductLookup
	GetProduct(ctx context.Context, id uint64) (*models.Product, error)
}

type Users interface {
	UserExists(ctx context.Context, id uint64) (bool, error)
}

// Baskets is the session basket access checkout needs.
type Baskets interface {
	Load(ctx context.Context, sessionID string) (*basket.Basket, error)
	Clear(ctx context.Context, sessionID string) error
}

// OrderInput carries the order-level fields of a manual order.
type OrderInput struct {
	UserID *uint64 `json:"user_id"`
}

type LineInput struct {
	ProductID uint64 `json:"product_id"`
	Amount    int    `json:"amount"`
}

// Detail is an order rendered with priced lines.
type Detail struct {
	Order   *models.Order    `json:"order"`
	Summary *pricing.Summary `json:"summary"`
}

type Service struct {
	repo       Repository
	catalog    Catalog
	users      Users
	baskets    Baskets
	aggregator *pricing.Aggregator
	events     events.Publisher
	logger     *zap.Logger
}

func NewService(repo Repository, catalog Catalog, users Users, baskets Baskets, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		catalog:    catalog,
		users:      users,
		baskets:    baskets,
		aggregator: pricing.NewAggregator(catalog),
		events:     publisher,
		logger:     logger.Named("order"),
	}
}

// Checkout turns the session basket into an order with one line per
// product. The order and its lines are written in one transaction; the
// basket is cleared only once they are committed and is left intact on
// any failure before that.
func (s *Service) Checkout(ctx context.Context, actor auth.Identity, sessionID string) (*Detail, error) {
	b, err := s.baskets.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if b.IsEmpty() {
		return nil, models.ErrEmptyBasket
	}

	entries := pricing.FromTotals(b.Totals())
	summary, err := s.aggregator.Aggregate(ctx, entries)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID: actor.UserRef(),
		Status: models.StatusCreated,
	}
	lines := make([]models.OrderProduct, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, models.OrderProduct{ProductID: e.ProductID, Amount: e.Quantity})
	}

	if err := s.repo.CreateWithLines(ctx, order, lines); err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	if err := s.baskets.Clear(ctx, sessionID); err != nil {
		s.logger.Error("Order placed but basket not cleared",
			zap.Uint64("order_id", order.ID),
			zap.Error(err))
	}

	for i := range summary.Lines {
		summary.Lines[i].LineID = order.Lines[i].ID
	}

	s.logger.Info("Order placed from basket",
		zap.Uint64("order_id", order.ID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", summary.Total.String()))
	s.publish(events.OrderCreated, order, actor, map[string]interface{}{
		"source": "basket",
		"lines":  len(order.Lines),
		"total":  summary.Total.String(),
	})

	return &Detail{Order: order, Summary: summary}, nil
}

// CreateManual creates an order without lines. The owning user is optional.
func (s *Service) CreateManual(ctx context.Context, actor auth.Identity, in OrderInput) (*models.Order, error) {
	if err := s.validateOwner(ctx, in.UserID); err != nil {
		return nil, err
	}

	order := &models.Order{UserID: in.UserID, Status: models.StatusCreated}
	if err := s.repo.CreateWithLines(ctx, order, nil); err != nil {
		return nil, err
	}

	s.publish(events.OrderCreated, order, actor, map[string]interface{}{"source": "manual"})
	return order, nil
}

// Update rewrites the order-level fields.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id uint64, in OrderInput) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateOwner(ctx, in.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.SetOrderOwner(ctx, id, in.UserID); err != nil {
		return nil, err
	}

	order.UserID = in.UserID
	s.publish(events.OrderUpdated, order, actor, map[string]interface{}{"user_id": in.UserID})
	return order, nil
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	return s.repo.ListOrders(ctx, filter)
}

// ListForUser returns the orders owned by one user, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]models.Order, error) {
	return s.repo.ListOrders(ctx, repository.OrderFilter{UserID: &userID})
}

// Detail renders an order with one priced descriptor per persisted line.
func (s *Service) Detail(ctx context.Context, id uint64) (*Detail, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.aggregator.Aggregate(ctx, pricing.FromOrderLines(order.Lines))
	if err != nil {
		return nil, err
	}
	return &Detail{Order: order, Summary: summary}, nil
}

// DetailForOwner is Detail restricted to orders owned by the identity.
// Other users' orders are reported as not found.
func (s *Service) DetailForOwner(ctx context.Context, actor auth.Identity, id uint64) (*Detail, error) {
	if actor.Anonymous() {
		return nil, models.ErrUnauthenticated
	}
	detail, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Order.UserID == nil || *detail.Order.UserID != actor.UserID {
		return nil, models.ErrOrderNotFound
	}
	return detail, nil
}

func (s *Service) validateOwner(ctx context.Context, userID *uint64) error {
	if userID == nil {
		return nil
	}
	ok, err := s.users.UserExists(ctx, *userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewValidationError("user_id", "user does not exist")
	}
	return nil
}

func (s *Service) publish(action string, o *models.Order, actor auth.Identity, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["status"] = string(o.Status)
	s.events.Publish(events.Event{
		Action:     action,
		EntityType: events.EntityOrder,
		EntityID:   o.ID,
		ActorID:    actor.UserRef(),
		Data:       data,
	})
}
