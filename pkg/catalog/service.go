package catalog

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/repository"
	"github.com/example/shopdesk/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrPhotosDisabled = errors.New("photo storage is not configured")

type Repository interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	SoftDeleteProduct(ctx context.Context, id uint64) (*models.Product, error)
	SetProductPhoto(ctx context.Context, id uint64, photo string) error
}

type PhotoStore interface {
	PutPhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	RemovePhoto(ctx context.Context, key string) error
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	InOrder  bool            `json:"in_order"`
}

var maxPrice = decimal.New(1, 7)

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	if in.Name == "" {
		return models.NewValidationError("name", "is required")
	}
	if len(in.Name) > 100 {
		return models.NewValidationError("name", "must be at most 100 characters")
	}
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}
	if len(in.Category) > 30 {
		return models.NewValidationError("category", "must be at most 30 characters")
	}
	if in.Price.IsNegative() {
		return models.NewValidationError("price", "must not be negative")
	}
	if in.Price.GreaterThanOrEqual(maxPrice) || !in.Price.Equal(in.Price.Truncate(2)) {
		return models.NewValidationError("price", "must have at most 7 integer digits and 2 decimal places")
	}
	return nil
}

type Service struct {
	repo   Repository
	photos PhotoStore
	events events.Publisher
	logger *zap.Logger
}

// NewService wires the catalog. photos may be nil, in which case photo
// uploads are refused.
func NewService(repo Repository, photos PhotoStore, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		photos: photos,
		events: publisher,
		logger: logger.Named("catalog"),
	}
}

// ListPurchasable returns the products currently on sale, optionally limited
// to one category.
func (s *Service) ListPurchasable(ctx context.Context, category string) ([]models.Product, error) {
	return s.repo.ListProducts(ctx, repository.ProductFilter{OnlyPurchasable: true, Category: category})
}

// ListAll includes products taken out of sale.
func (s *Service) ListAll(ctx context.Context, category string) ([]models.Product, error) {
	return s.repo.ListProducts(ctx, repository.ProductFilter{Category: category})
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor auth.Identity, in ProductInput) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		InOrder:  in.InOrder,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.Uint64("product_id", product.ID), zap.String("name", product.Name))
	s.publish(events.ProductCreated, product, actor)
	return product, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Identity, id uint64, in ProductInput) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = in.Name
	product.Category = in.Category
	product.Price = in.Price
	product.InOrder = in.InOrder

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.publish(events.ProductUpdated, product, actor)
	return product, nil
}

// SoftDelete takes the product out of sale without removing it.
func (s *Service) SoftDelete(ctx context.Context, actor auth.Identity, id uint64) (*models.Product, error) {
	product, err := s.repo.SoftDeleteProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product withdrawn from sale", zap.Uint64("product_id", id))
	s.publish(events.ProductDeleted, product, actor)
	return product, nil
}

// AttachPhoto uploads a new photo and points the product at it. The previous
// photo object is removed once the product row references the new one.
func (s *Service) AttachPhoto(ctx context.Context, actor auth.Identity, id uint64, r io.Reader, size int64, contentType string) (*models.Product, error) {
	if s.photos == nil {
		return nil, ErrPhotosDisabled
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := storage.PhotoKey(id, contentType)
	if err != nil {
		return nil, models.NewValidationError("photo", err.Error())
	}
	if err := s.photos.PutPhoto(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}
	if err := s.repo.SetProductPhoto(ctx, id, key); err != nil {
		// Nothing references the new object; drop it even if ctx is done.
		if rmErr := s.photos.RemovePhoto(context.WithoutCancel(ctx), key); rmErr != nil {
			s.logger.Warn("Failed to remove orphaned photo", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, err
	}

	previous := product.Photo
	product.Photo = key
	if previous != "" {
		if err := s.photos.RemovePhoto(ctx, previous); err != nil {
			s.logger.Warn("Failed to remove previous photo", zap.String("key", previous), zap.Error(err))
		}
	}

	s.publish(events.ProductPhotoChanged, product, actor)
	return product, nil
}

func (s *Service) publish(action string, p *models.Product, actor auth.Identity) {
	s.events.Publish(events.Event{
		Action:     action,
		EntityType: events.EntityProduct,
		EntityID:   p.ID,
		ActorID:    actor.UserRef(),
		Data: map[string]interface{}{
			"name":     p.Name,
			"category": p.Category,
			"price":    p.Price.String(),
			"in_order": p.InOrder,
			"photo":    p.Photo,
		},
	})
}
