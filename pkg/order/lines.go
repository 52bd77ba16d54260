package order

import (
	"context"
	"errors"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/models"
)

func (in LineInput) validate() error {
	if in.ProductID == 0 {
		return models.NewValidationError("product_id", "is required")
	}
	if in.Amount < 1 {
		return models.NewValidationError("amount", "must be at least 1")
	}
	return nil
}

func (s *Service) checkProduct(ctx context.Context, id uint64) error {
	_, err := s.catalog.GetProduct(ctx, id)
	if errors.Is(err, models.ErrProductNotFound) {
		return models.NewValidationError("product_id", "product does not exist")
	}
	return err
}

// AddLine always inserts a new line, even when the order already has one
// for the same product.
func (s *Service) AddLine(ctx context.Context, actor auth.Identity, orderID uint64, in LineInput) (*models.OrderProduct, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	line := &models.OrderProduct{OrderID: orderID, ProductID: in.ProductID, Amount: in.Amount}
	if err := s.repo.AddLine(ctx, line); err != nil {
		return nil, err
	}

	s.publish(events.OrderLineAdded, order, actor, lineData(line))
	return line, nil
}

// UpdateLine changes the product and amount of one existing line in place.
func (s *Service) UpdateLine(ctx context.Context, actor auth.Identity, orderID, lineID uint64, in LineInput) (*models.OrderProduct, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	line, err := s.repo.GetLine(ctx, orderID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	line.ProductID = in.ProductID
	line.Amount = in.Amount
	if err := s.repo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}

	s.publish(events.OrderLineUpdated, order, actor, lineData(line))
	return line, nil
}

// DeleteLine removes exactly one line; the order itself is untouched.
func (s *Service) DeleteLine(ctx context.Context, actor auth.Identity, orderID, lineID uint64) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLine(ctx, orderID, lineID); err != nil {
		return err
	}

	s.publish(events.OrderLineDeleted, order, actor, map[string]interface{}{"line_id": lineID})
	return nil
}

func lineData(l *models.OrderProduct) map[string]interface{} {
	return map[string]interface{}{
		"line_id":    l.ID,
		"product_id": l.ProductID,
		"amount":     l.Amount,
	}
}
