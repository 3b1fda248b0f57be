package inventory

import (
	"fmt"
	"sync"

	"orderflow/internal/events"
)

type Product struct {
	Name  string
	Stock int
}

// Store is the in-memory stock table, local to one inventory process.
// Cross-instance safety is delegated to consumer-group partition
// exclusivity; the mutex serializes concurrent partition workers within
// this process.
type Store struct {
	mu       sync.Mutex
	products map[string]*Product
}

// NewStore seeds the demo catalog.
func NewStore() *Store {
	return &Store{products: map[string]*Product{
		"item-001": {Name: "Laptop", Stock: 100},
		"item-002": {Name: "Mouse", Stock: 50},
		"item-003": {Name: "Keyboard", Stock: 75},
		"item-004": {Name: "Monitor", Stock: 30},
		"item-005": {Name: "Webcam", Stock: 20},
	}}
}

// Reserve validates every line item before deducting anything: a missing or
// insufficient item fails the whole order with no partial deduction.
func (st *Store) Reserve(items []events.Item) (bool, string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, it := range items {
		p, ok := st.products[it.ProductID]
		if !ok {
			return false, fmt.Sprintf("Product %s not found", it.ProductID)
		}
		if p.Stock < it.Quantity {
			return false, fmt.Sprintf("Insufficient stock for %s", p.Name)
		}
	}
	for _, it := range items {
		st.products[it.ProductID].Stock -= it.Quantity
	}
	return true, "Inventory reserved successfully"
}

// Stock reports the current stock level of a product.
func (st *Store) Stock(productID string) (int, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	p, ok := st.products[productID]
	if !ok {
		return 0, false
	}
	return p.Stock, true
}
