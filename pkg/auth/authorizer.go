package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/shopdesk/pkg/models"
	"go.uber.org/zap"
)

type UserSource interface {
	GetUser(ctx context.Context, id uint64) (*models.User, error)
}

// Authorizer answers capability checks against stored user grants.
type Authorizer struct {
	users  UserSource
	logger *zap.Logger
}

func NewAuthorizer(users UserSource, logger *zap.Logger) *Authorizer {
	return &Authorizer{users: users, logger: logger.Named("auth")}
}

// Can reports whether the identity holds the capability. Anonymous
// identities and unknown users hold nothing.
func (a *Authorizer) Can(ctx context.Context, id Identity, c Capability) (bool, error) {
	if id.Anonymous() {
		return false, nil
	}

	user, err := a.users.GetUser(ctx, id.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user %d: %w", id.UserID, err)
	}

	if user.Superuser {
		return true, nil
	}
	name := c.String()
	for _, p := range user.Permissions {
		if p.Capability == name {
			return true, nil
		}
	}
	return false, nil
}

// Authorize is Can turned into an error: models.ErrUnauthenticated for
// anonymous callers, models.ErrForbidden when the grant is missing.
func (a *Authorizer) Authorize(ctx context.Context, id Identity, c Capability) error {
	if id.Anonymous() {
		return models.ErrUnauthenticated
	}
	ok, err := a.Can(ctx, id, c)
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Info("Permission denied",
			zap.Uint64("user_id", id.UserID),
			zap.String("capability", c.String()))
		return models.ErrForbidden
	}
	return nil
}
