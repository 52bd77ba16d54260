package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID          uint64           `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(100);not null" json:"name"`
	Email       string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Phone       string           `gorm:"type:varchar(20)" json:"phone"`
	Superuser   bool             `gorm:"not null" json:"superuser"`
	Permissions []UserPermission `gorm:"foreignKey:UserID" json:"permissions,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserPermission grants one named capability to a user.
type UserPermission struct {
	UserID     uint64 `gorm:"primaryKey" json:"user_id"`
	Capability string `gorm:"primaryKey;type:varchar(50)" json:"capability"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
