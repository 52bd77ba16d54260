package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ Repository = &mockProductRepository{}

type mockProductRepository struct {
	store     map[uint64]*models.Product
	nextID    uint64
	failPhoto error
}

func (m *mockProductRepository) ListProducts(_ context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	var out []models.Product
	for id := uint64(1); id <= m.nextID; id++ {
		p, ok := m.store[id]
		if !ok || (filter.OnlyPurchasable && !p.InOrder) || (filter.Category != "" && p.Category != filter.Category) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepository) GetProduct(_ context.Context, id uint64) (*models.Product, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockProductRepository) CreateProduct(_ context.Context, p *models.Product) error {
	m.nextID++
	p.ID = m.nextID
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, p *models.Product) error {
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) SoftDeleteProduct(_ context.Context, id uint64) (*models.Product, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	p.InOrder = false
	clone := *p
	return &clone, nil
}

func (m *mockProductRepository) SetProductPhoto(_ context.Context, id uint64, photo string) error {
	if m.failPhoto != nil {
		return m.failPhoto
	}
	m.store[id].Photo = photo
	return nil
}

type mockPhotos struct {
	objects map[string][]byte
	failPut bool
}

func (m *mockPhotos) PutPhoto(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.failPut {
		return errors.New("bucket unreachable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *mockPhotos) RemovePhoto(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) {
	r.events = append(r.events, e)
}

func setup(t *testing.T) (*Service, *mockProductRepository, *mockPhotos, *recordingPublisher) {
	t.Helper()
	repo := &mockProductRepository{store: make(map[uint64]*models.Product)}
	photos := &mockPhotos{objects: make(map[string][]byte)}
	pub := &recordingPublisher{}
	return NewService(repo, photos, pub, zap.NewNop()), repo, photos, pub
}

var staff = auth.Identity{UserID: 1}

func TestCreateProduct(t *testing.T) {
	svc, repo, _, pub := setup(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		p, err := svc.Create(ctx, staff, ProductInput{Name: "  Tea ", Price: decimal.RequireFromString("4.50"), InOrder: true})
		require.NoError(t, err)
		assert.Equal(t, "Tea", p.Name)
		assert.Equal(t, models.DefaultCategory, p.Category)
		assert.Contains(t, repo.store, p.ID)

		require.Len(t, pub.events, 1)
		assert.Equal(t, events.ProductCreated, pub.events[0].Action)
		assert.Equal(t, uint64(1), *pub.events[0].ActorID)
	})

	t.Run("Validation", func(t *testing.T) {
		cases := map[string]ProductInput{
			"name":      {Name: " ", Price: decimal.NewFromInt(1)},
			"price":     {Name: "Tea", Price: decimal.NewFromInt(-1)},
			"precision": {Name: "Tea", Price: decimal.RequireFromString("1.005")},
			"magnitude": {Name: "Tea", Price: decimal.NewFromInt(10_000_000)},
			"category":  {Name: "Tea", Category: "a category name that is far too long", Price: decimal.NewFromInt(1)},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := svc.Create(ctx, staff, in)
				var verr *models.ValidationError
				assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			})
		}
	})
}

func TestListPurchasable(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, staff, ProductInput{Name: "Tea", Category: "drinks", Price: decimal.NewFromInt(1), InOrder: true})
	_, _ = svc.Create(ctx, staff, ProductInput{Name: "Old tea", Category: "drinks", Price: decimal.NewFromInt(1), InOrder: false})
	_, _ = svc.Create(ctx, staff, ProductInput{Name: "Cup", Category: "kitchen", Price: decimal.NewFromInt(1), InOrder: true})

	onSale, err := svc.ListPurchasable(ctx, "")
	require.NoError(t, err)
	assert.Len(t, onSale, 2)

	drinks, err := svc.ListPurchasable(ctx, "drinks")
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Tea", drinks[0].Name)

	all, err := svc.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateProduct(t *testing.T) {
	svc, repo, _, _ := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, staff, ProductInput{Name: "Tea", Price: decimal.NewFromInt(1), InOrder: true})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, staff, p.ID, ProductInput{Name: "Green tea", Category: "drinks", Price: decimal.NewFromInt(2), InOrder: false})
	require.NoError(t, err)
	assert.False(t, updated.InOrder)
	assert.Equal(t, "Green tea", repo.store[p.ID].Name)

	_, err = svc.Update(ctx, staff, 99, ProductInput{Name: "x", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestSoftDelete(t *testing.T) {
	svc, repo, _, pub := setup(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, staff, ProductInput{Name: "Tea", Price: decimal.NewFromInt(1), InOrder: true})

	deleted, err := svc.SoftDelete(ctx, staff, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted.InOrder)
	assert.Contains(t, repo.store, p.ID, "row must survive a delete")
	assert.Equal(t, events.ProductDeleted, pub.events[len(pub.events)-1].Action)

	_, err = svc.SoftDelete(ctx, staff, 99)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestAttachPhoto(t *testing.T) {
	svc, repo, photos, _ := setup(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, staff, ProductInput{Name: "Tea", Price: decimal.NewFromInt(1), InOrder: true})

	first, err := svc.AttachPhoto(ctx, staff, p.ID, bytes.NewReader([]byte("png-1")), 5, "image/png")
	require.NoError(t, err)
	assert.Equal(t, first.Photo, repo.store[p.ID].Photo)
	assert.Contains(t, photos.objects, first.Photo)

	second, err := svc.AttachPhoto(ctx, staff, p.ID, bytes.NewReader([]byte("jpg-2")), 5, "image/jpeg")
	require.NoError(t, err)
	assert.NotContains(t, photos.objects, first.Photo)
	assert.Contains(t, photos.objects, second.Photo)

	_, err = svc.AttachPhoto(ctx, staff, p.ID, bytes.NewReader(nil), 0, "text/plain")
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))

	photos.failPut = true
	_, err = svc.AttachPhoto(ctx, staff, p.ID, bytes.NewReader([]byte("x")), 1, "image/png")
	assert.Error(t, err)
	assert.Equal(t, second.Photo, repo.store[p.ID].Photo)
}

func TestAttachPhotoRemovesUploadWhenSaveFails(t *testing.T) {
	svc, repo, photos, pub := setup(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, staff, ProductInput{Name: "Tea", Price: decimal.NewFromInt(1), InOrder: true})
	first, err := svc.AttachPhoto(ctx, staff, p.ID, bytes.NewReader([]byte("png-1")), 5, "image/png")
	require.NoError(t, err)
	published := len(pub.events)

	repo.failPhoto = errors.New("connection reset")
	_, err = svc.AttachPhoto(ctx, staff, p.ID, bytes.NewReader([]byte("png-2")), 5, "image/png")
	assert.ErrorIs(t, err, repo.failPhoto)

	assert.Len(t, photos.objects, 1)
	assert.Contains(t, photos.objects, first.Photo)
	assert.Equal(t, first.Photo, repo.store[p.ID].Photo)
	assert.Len(t, pub.events, published)
}

func TestAttachPhotoDisabled(t *testing.T) {
	repo := &mockProductRepository{store: make(map[uint64]*models.Product)}
	svc := NewService(repo, nil, events.Discard, zap.NewNop())

	_, err := svc.AttachPhoto(context.Background(), staff, 1, bytes.NewReader(nil), 0, "image/png")
	assert.ErrorIs(t, err, ErrPhotosDisabled)
}
