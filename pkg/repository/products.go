package repository

import (
	"context"
	"fmt"

	"github.com/example/shopdesk/pkg/models"
	"gorm.io/gorm"
)

type ProductFilter struct {
	OnlyPurchasable bool
	Category        string
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.OnlyPurchasable {
		query = query.Where("in_order = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var products []models.Product
	if err := query.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err, models.ErrProductNotFound)
	}
	return &product, nil
}

// ProductsByID loads every listed product, purchasable or not. Missing
// identifiers are simply absent from the result.
func (r *ProductRepository) ProductsByID(ctx context.Context, ids []uint64) (map[uint64]models.Product, error) {
	result := make(map[uint64]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct writes every editable column, including false/zero values.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).
		Select("name", "category", "price", "photo", "in_order").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	return nil
}

// SoftDeleteProduct takes the product out of sale. The row and every order
// line referencing it stay in place.
func (r *ProductRepository) SoftDeleteProduct(ctx context.Context, id uint64) (*models.Product, error) {
	product, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(product).Update("in_order", false).Error; err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	product.InOrder = false
	return product, nil
}

func (r *ProductRepository) SetProductPhoto(ctx context.Context, id uint64, photo string) error {
	res := r.db.WithContext(ctx).Model(&models.Product{ID: id}).Update("photo", photo)
	if res.Error != nil {
		return fmt.Errorf("failed to set product photo: %w", res.Error)
	}
	return nil
}
