package models

import (
	"time"
)

type OrderStatus string

const (
	StatusCreated   OrderStatus = "created"
	StatusDelivered OrderStatus = "delivered"
	StatusCanceled  OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave this status.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

type Order struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	UserID    *uint64        `gorm:"index" json:"user_id,omitempty"`
	Status    OrderStatus    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Lines     []OrderProduct `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderProduct is one order line. Several lines may reference the same
// product within an order; they are never merged.
type OrderProduct struct {
	ID        uint64   `gorm:"primaryKey" json:"id"`
	OrderID   uint64   `gorm:"not null;index" json:"order_id"`
	ProductID uint64   `gorm:"not null;index" json:"product_id"`
	Amount    int      `gorm:"not null" json:"amount"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
}

func (OrderProduct) TableName() string {
	return "order_products"
}
