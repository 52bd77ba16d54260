package basket

import (
	"context"
	"fmt"

	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/pricing"
	"go.uber.org/zap"
)

// Store persists baskets per session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Basket, error)
	Save(ctx context.Context, sessionID string, b *Basket) error
	Clear(ctx context.Context, sessionID string) error
}

// Catalog is the product access the basket needs.
type Catalog interface {
	pricing.ProductLookup
	GetProduct(ctx context.Context, id uint64) (*models.Product, error)
}

type Service struct {
	store      Store
	catalog    Catalog
	aggregator *pricing.Aggregator
	logger     *zap.Logger
}

func NewService(store Store, catalog Catalog, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		catalog:    catalog,
		aggregator: pricing.NewAggregator(catalog),
		logger:     logger.Named("basket"),
	}
}

// Load returns the session's basket, empty if none was stored.
func (s *Service) Load(ctx context.Context, sessionID string) (*Basket, error) {
	b, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load basket: %w", err)
	}
	if b == nil {
		return New(), nil
	}
	b.normalize()
	return b, nil
}

// Add puts one unit of the product into the basket. A product that is not
// purchasable leaves the basket untouched and added is false.
func (s *Service) Add(ctx context.Context, sessionID string, productID uint64) (b *Basket, added bool, err error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, false, err
	}

	b, err = s.Load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	if !product.InOrder {
		s.logger.Debug("Product not purchasable, basket unchanged", zap.Uint64("product_id", productID))
		return b, false, nil
	}

	b.Add(productID)
	if err := s.store.Save(ctx, sessionID, b); err != nil {
		return nil, false, fmt.Errorf("failed to save basket: %w", err)
	}
	return b, true, nil
}

// Remove takes one unit of the product out of the basket. Removing an absent
// product is a no-op.
func (s *Service) Remove(ctx context.Context, sessionID string, productID uint64) (*Basket, error) {
	b, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !b.Remove(productID) {
		return b, nil
	}
	if err := s.store.Save(ctx, sessionID, b); err != nil {
		return nil, fmt.Errorf("failed to save basket: %w", err)
	}
	return b, nil
}

func (s *Service) Totals(ctx context.Context, sessionID string) (map[uint64]int, error) {
	b, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return b.Totals(), nil
}

// View prices the basket contents.
func (s *Service) View(ctx context.Context, sessionID string) (*pricing.Summary, error) {
	b, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Aggregate(ctx, pricing.FromTotals(b.Totals()))
}

// Clear removes the basket from the session entirely.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear basket: %w", err)
	}
	return nil
}
