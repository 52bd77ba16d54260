package order

import (
	"context"
	"fmt"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/models"
	"go.uber.org/zap"
)

// Deliver marks a created order as delivered.
func (s *Service) Deliver(ctx context.Context, actor auth.Identity, id uint64) (*models.Order, error) {
	return s.transition(ctx, actor, id, models.StatusDelivered, events.OrderDelivered)
}

// Cancel marks a created order as canceled.
func (s *Service) Cancel(ctx context.Context, actor auth.Identity, id uint64) (*models.Order, error) {
	return s.transition(ctx, actor, id, models.StatusCanceled, events.OrderCanceled)
}

// transition allows created→delivered and created→canceled only. Asking for
// the status an order already has succeeds without writing.
func (s *Service) transition(ctx context.Context, actor auth.Identity, id uint64, to models.OrderStatus, action string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == to {
		return order, nil
	}
	if order.Status != models.StatusCreated {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, order.Status, to)
	}

	ok, err := s.repo.TransitionStatus(ctx, id, models.StatusCreated, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else moved the order first.
		current, err := s.repo.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == to {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current.Status, to)
	}

	from := order.Status
	order.Status = to
	s.logger.Info("Order status changed",
		zap.Uint64("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	s.publish(action, order, actor, map[string]interface{}{"from": string(from)})
	return order, nil
}
