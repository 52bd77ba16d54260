// Package pricing turns product quantities into priced line descriptors and
// an order total. Prices are read at aggregation time; nothing is snapshotted.
package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/shopdesk/pkg/models"
	"github.com/shopspring/decimal"
)

// ProductLookup loads products by identifier. Identifiers absent from the
// result are treated as missing.
type ProductLookup interface {
	ProductsByID(ctx context.Context, ids []uint64) (map[uint64]models.Product, error)
}

// Entry is one quantity to price. LineID is zero for basket entries.
type Entry struct {
	LineID    uint64
	ProductID uint64
	Quantity  int
}

type Line struct {
	LineID   uint64          `json:"line_id,omitempty"`
	Product  models.Product  `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"qty"`
	Total    decimal.Decimal `json:"total"`
}

type Summary struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// FromTotals converts a product→quantity mapping into entries ordered by
// product identifier so the result does not depend on map iteration.
func FromTotals(totals map[uint64]int) []Entry {
	entries := make([]Entry, 0, len(totals))
	for id, qty := range totals {
		entries = append(entries, Entry{ProductID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductID < entries[j].ProductID })
	return entries
}

// FromOrderLines keeps one entry per persisted line, in the given order.
func FromOrderLines(lines []models.OrderProduct) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, Entry{LineID: l.ID, ProductID: l.ProductID, Quantity: l.Amount})
	}
	return entries
}

type Aggregator struct {
	products ProductLookup
}

func NewAggregator(products ProductLookup) *Aggregator {
	return &Aggregator{products: products}
}

// Aggregate prices every entry. A product that cannot be found is reported
// as models.ErrIntegrity; the line is never skipped.
func (a *Aggregator) Aggregate(ctx context.Context, entries []Entry) (*Summary, error) {
	summary := &Summary{Lines: make([]Line, 0, len(entries)), Total: decimal.Zero}
	if len(entries) == 0 {
		return summary, nil
	}

	ids := make([]uint64, 0, len(entries))
	seen := make(map[uint64]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ProductID]; ok {
			continue
		}
		seen[e.ProductID] = struct{}{}
		ids = append(ids, e.ProductID)
	}

	products, err := a.products.ProductsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	for _, e := range entries {
		if e.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", models.ErrIntegrity, e.ProductID, e.Quantity)
		}
		product, ok := products[e.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d no longer exists", models.ErrIntegrity, e.ProductID)
		}

		total := product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
		summary.Lines = append(summary.Lines, Line{
			LineID:   e.LineID,
			Product:  product,
			Price:    product.Price,
			Quantity: e.Quantity,
			Total:    total,
		})
		summary.Total = summary.Total.Add(total)
		summary.Count += e.Quantity
	}

	return summary, nil
}
