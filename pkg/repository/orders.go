package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/example/shopdesk/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const noLimit = math.MaxInt32

type OrderFilter struct {
	UserID *uint64
	Status models.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithLines inserts the order and all of its lines in one transaction.
// On any failure nothing is persisted.
func (r *OrderRepository) CreateWithLines(ctx context.Context, order *models.Order, lines []models.OrderProduct) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}

		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to create order lines: %w", err)
		}
		return nil
	})
	if err != nil {
		order.ID = 0
		return err
	}

	order.Lines = lines
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_products.id") }).
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, models.ErrOrderNotFound)
	}
	return &order, nil
}

// ListOrders returns orders newest first.
func (r *OrderRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		// MySQL has no OFFSET without LIMIT.
		if filter.Limit <= 0 {
			query = query.Limit(noLimit)
		}
		query = query.Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// SetOrderOwner rewrites the owning user; nil detaches the order.
func (r *OrderRepository) SetOrderOwner(ctx context.Context, id uint64, userID *uint64) error {
	res := r.db.WithContext(ctx).Model(&models.Order{ID: id}).Update("user_id", userID)
	if res.Error != nil {
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	return nil
}

// TransitionStatus moves the order from one status to another and reports
// whether the row was still in the expected status.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id uint64, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderRepository) AddLine(ctx context.Context, line *models.OrderProduct) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error; err != nil {
		return fmt.Errorf("failed to add order line: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetLine(ctx context.Context, orderID, lineID uint64) (*models.OrderProduct, error) {
	var line models.OrderProduct
	err := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", lineID, orderID).
		First(&line).Error
	if err != nil {
		return nil, notFound(err, models.ErrOrderLineNotFound)
	}
	return &line, nil
}

func (r *OrderRepository) UpdateLine(ctx context.Context, line *models.OrderProduct) error {
	res := r.db.WithContext(ctx).Model(&models.OrderProduct{ID: line.ID}).
		Updates(map[string]interface{}{"product_id": line.ProductID, "amount": line.Amount})
	if res.Error != nil {
		return fmt.Errorf("failed to update order line: %w", res.Error)
	}
	return nil
}

// DeleteLine removes a single line of the given order.
func (r *OrderRepository) DeleteLine(ctx context.Context, orderID, lineID uint64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", lineID, orderID).
		Delete(&models.OrderProduct{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete order line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderLineNotFound
	}
	return nil
}
