package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/shopdesk/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "name", "category", "price", "photo", "in_order", "created_at", "updated_at"}

func TestGetProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE `products`.`id` = ?")).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(4, "Tea", "drinks", "10.50", "", true, now, now))

	p, err := repo.GetProduct(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), p.ID)
	assert.True(t, decimal.RequireFromString("10.5").Equal(p.Price))
	assert.True(t, p.InOrder)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE `products`.`id` = ?")).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err = repo.GetProduct(context.Background(), 5)
	assert.ErrorIs(t, err, models.ErrProductNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPurchasableProducts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE in_order = ?")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Tea", "drinks", "10.00", "", true, now, now).
			AddRow(2, "Cup", "kitchen", "5.00", "", true, now, now))

	products, err := repo.ListProducts(context.Background(), ProductFilter{OnlyPurchasable: true})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE id IN (?,?)")).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(1, "Tea", "drinks", "10.00", "", false, now, now))

	products, err := repo.ProductsByID(context.Background(), []uint64{1, 9})
	require.NoError(t, err)
	assert.Contains(t, products, uint64(1))
	assert.NotContains(t, products, uint64(9))

	empty, err := repo.ProductsByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `products`")).
		WillReturnResult(sqlmock.NewResult(12, 1))

	p := &models.Product{Name: "Tea", Category: "drinks", Price: decimal.NewFromInt(3), InOrder: true}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	assert.Equal(t, uint64(12), p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteProductKeepsRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE `products`.`id` = ?")).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(4, "Tea", "drinks", "10.00", "", true, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `products` SET `in_order`=?")).
		WithArgs(false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := repo.SoftDeleteProduct(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, p.InOrder)

	// No DELETE statement may be issued against products or order lines.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteMissingProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products`")).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := repo.SoftDeleteProduct(context.Background(), 4)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `products` SET")).
		WillReturnError(errors.New("deadlock"))

	err := repo.UpdateProduct(context.Background(), &models.Product{ID: 3, Name: "Tea"})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
