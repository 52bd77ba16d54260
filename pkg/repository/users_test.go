package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/shopdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserWithPermissions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `users`.`id` = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "superuser", "created_at", "updated_at", "deleted_at"}).
			AddRow(3, "Ann", "ann@example.com", "", false, now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `user_permissions` WHERE `user_permissions`.`user_id` = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "capability"}).
			AddRow(3, "view_order").
			AddRow(3, "deliver_order"))

	user, err := repo.GetUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, user.Permissions, 2)
	assert.Equal(t, "deliver_order", user.Permissions[1].Capability)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetUser(context.Background(), 3)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUserExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.UserExists(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantIsUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `user_permissions`") + ".*ON DUPLICATE KEY").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Grant(context.Background(), 3, "cancel_order"))
	require.NoError(t, mock.ExpectationsWereMet())
}
