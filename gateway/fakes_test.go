package gateway

import (
	"context"
	"sort"

	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/repository"
)

// memoryDB backs every repository interface the services need.
type memoryDB struct {
	products  map[uint64]*models.Product
	orders    map[uint64]*models.Order
	lines     map[uint64]*models.OrderProduct
	users     map[uint64]*models.User
	baskets   map[string]*basket.Basket
	nextOrder uint64
	nextLine  uint64
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		products: make(map[uint64]*models.Product),
		orders:   make(map[uint64]*models.Order),
		lines:    make(map[uint64]*models.OrderProduct),
		users:    make(map[uint64]*models.User),
		baskets:  make(map[string]*basket.Basket),
	}
}

func (m *memoryDB) ListProducts(_ context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range m.products {
		if filter.OnlyPurchasable && !p.InOrder {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryDB) GetProduct(_ context.Context, id uint64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memoryDB) ProductsByID(_ context.Context, ids []uint64) (map[uint64]models.Product, error) {
	out := make(map[uint64]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (m *memoryDB) CreateProduct(_ context.Context, p *models.Product) error {
	p.ID = uint64(len(m.products) + 1)
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *memoryDB) UpdateProduct(_ context.Context, p *models.Product) error {
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *memoryDB) SoftDeleteProduct(_ context.Context, id uint64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	p.InOrder = false
	clone := *p
	return &clone, nil
}

func (m *memoryDB) SetProductPhoto(_ context.Context, id uint64, photo string) error {
	m.products[id].Photo = photo
	return nil
}

func (m *memoryDB) CreateWithLines(_ context.Context, order *models.Order, lines []models.OrderProduct) error {
	m.nextOrder++
	order.ID = m.nextOrder
	stored := *order
	stored.Lines = nil
	m.orders[order.ID] = &stored
	for i := range lines {
		m.nextLine++
		lines[i].ID = m.nextLine
		lines[i].OrderID = order.ID
		line := lines[i]
		m.lines[line.ID] = &line
	}
	order.Lines = lines
	return nil
}

func (m *memoryDB) GetOrder(_ context.Context, id uint64) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	clone := *o
	clone.Lines = nil
	for _, l := range m.lines {
		if l.OrderID == id {
			clone.Lines = append(clone.Lines, *l)
		}
	}
	sort.Slice(clone.Lines, func(i, j int) bool { return clone.Lines[i].ID < clone.Lines[j].ID })
	return &clone, nil
}

func (m *memoryDB) ListOrders(_ context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range m.orders {
		if filter.UserID != nil && (o.UserID == nil || *o.UserID != *filter.UserID) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryDB) SetOrderOwner(_ context.Context, id uint64, userID *uint64) error {
	m.orders[id].UserID = userID
	return nil
}

func (m *memoryDB) TransitionStatus(_ context.Context, id uint64, from, to models.OrderStatus) (bool, error) {
	o := m.orders[id]
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (m *memoryDB) AddLine(_ context.Context, line *models.OrderProduct) error {
	m.nextLine++
	line.ID = m.nextLine
	clone := *line
	m.lines[line.ID] = &clone
	return nil
}

func (m *memoryDB) GetLine(_ context.Context, orderID, lineID uint64) (*models.OrderProduct, error) {
	l, ok := m.lines[lineID]
	if !ok || l.OrderID != orderID {
		return nil, models.ErrOrderLineNotFound
	}
	clone := *l
	return &clone, nil
}

func (m *memoryDB) UpdateLine(_ context.Context, line *models.OrderProduct) error {
	clone := *line
	m.lines[line.ID] = &clone
	return nil
}

func (m *memoryDB) DeleteLine(_ context.Context, orderID, lineID uint64) error {
	l, ok := m.lines[lineID]
	if !ok || l.OrderID != orderID {
		return models.ErrOrderLineNotFound
	}
	delete(m.lines, lineID)
	return nil
}

func (m *memoryDB) GetUser(_ context.Context, id uint64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryDB) UserExists(_ context.Context, id uint64) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

// basketStore adapts the basket map to basket.Store.
type basketStore struct{ db *memoryDB }

func (s basketStore) Load(_ context.Context, sid string) (*basket.Basket, error) {
	b, ok := s.db.baskets[sid]
	if !ok {
		return nil, nil
	}
	clone := *b
	clone.Entries = append([]uint64(nil), b.Entries...)
	return &clone, nil
}

func (s basketStore) Save(_ context.Context, sid string, b *basket.Basket) error {
	clone := *b
	s.db.baskets[sid] = &clone
	return nil
}

func (s basketStore) Clear(_ context.Context, sid string) error {
	delete(s.db.baskets, sid)
	return nil
}

type memoryAudit struct {
	logs []*repository.AuditLog
}

func (a *memoryAudit) GetAuditLogs(_ context.Context, entityType string, entityID uint64, _ int64) ([]*repository.AuditLog, error) {
	out := []*repository.AuditLog{}
	for i := len(a.logs) - 1; i >= 0; i-- {
		if a.logs[i].EntityType == entityType && a.logs[i].EntityID == entityID {
			out = append(out, a.logs[i])
		}
	}
	return out, nil
}
