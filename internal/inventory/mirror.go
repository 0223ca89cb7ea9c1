package inventory

import "sync"

// Mirror guards the stock and ledger copies shared by the equipment services.
type Mirror struct {
	mu     sync.RWMutex
	stock  *Stock
	ledger *Ledger
}

func NewMirror() *Mirror {
	return &Mirror{stock: NewStock(), ledger: NewLedger()}
}

// Read runs fn under the read lock. fn must not retain the pointers.
func (m *Mirror) Read(fn func(*Stock, *Ledger)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.stock, m.ledger)
}

// Write runs fn under the write lock.
func (m *Mirror) Write(fn func(*Stock, *Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.stock, m.ledger)
}
