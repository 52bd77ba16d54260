// Package basket holds the session-scoped shopping basket: one entry per unit
// added, with the derived count kept alongside for display.
package basket

// Basket is the value stored in the session. Entries and Count are always
// rewritten together; never assign Entries directly.
type Basket struct {
	Entries []uint64 `json:"entries"`
	Count   int      `json:"count"`
}

func New() *Basket {
	return &Basket{Entries: []uint64{}}
}

// Add appends one unit of the product.
func (b *Basket) Add(productID uint64) {
	b.set(append(b.Entries, productID))
}

// Remove drops the first occurrence of productID and reports whether one was
// found.
func (b *Basket) Remove(productID uint64) bool {
	for i, id := range b.Entries {
		if id == productID {
			entries := make([]uint64, 0, len(b.Entries)-1)
			entries = append(entries, b.Entries[:i]...)
			entries = append(entries, b.Entries[i+1:]...)
			b.set(entries)
			return true
		}
	}
	return false
}

// Totals counts occurrences per product.
func (b *Basket) Totals() map[uint64]int {
	totals := make(map[uint64]int)
	for _, id := range b.Entries {
		totals[id]++
	}
	return totals
}

func (b *Basket) IsEmpty() bool {
	return len(b.Entries) == 0
}

// normalize repairs a count that drifted from the entries, e.g. after
// decoding a value written by an older release.
func (b *Basket) normalize() {
	if b.Entries == nil {
		b.Entries = []uint64{}
	}
	b.Count = len(b.Entries)
}

func (b *Basket) set(entries []uint64) {
	b.Entries = entries
	b.Count = len(entries)
}
