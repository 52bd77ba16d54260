package repository

import (
	"context"
	"fmt"

	"github.com/example/shopdesk/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser loads the user together with the granted capabilities.
func (r *UserRepository) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&user, id).Error; err != nil {
		return nil, notFound(err, models.ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) UserExists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Grant is idempotent: granting an already held capability succeeds.
func (r *UserRepository) Grant(ctx context.Context, userID uint64, capability string) error {
	perm := models.UserPermission{UserID: userID, Capability: capability}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&perm).Error
	if err != nil {
		return fmt.Errorf("failed to grant %s: %w", capability, err)
	}
	return nil
}

func (r *UserRepository) Revoke(ctx context.Context, userID uint64, capability string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND capability = ?", userID, capability).
		Delete(&models.UserPermission{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke %s: %w", capability, err)
	}
	return nil
}
