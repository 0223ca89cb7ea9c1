package state

import (
	"sync"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// Manager keeps per-chat carts and borrower prefill.
type Manager struct {
	mu    sync.RWMutex
	chats map[int64]*ChatData // chatID -> ChatData
}

func NewManager() *Manager {
	return &Manager{
		chats: make(map[int64]*ChatData),
	}
}

func (sm *Manager) chat(chatID int64) *ChatData {
	sm.mu.RLock()
	d, ok := sm.chats[chatID]
	sm.mu.RUnlock()
	if ok {
		return d
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if d, ok = sm.chats[chatID]; !ok {
		d = &ChatData{cart: inventory.NewCart()}
		sm.chats[chatID] = d
	}
	return d
}

// WithCart runs fn with exclusive access to the chat's cart. A cart that is
// already in use, e.g. by a borrow still talking to the backend, yields
// SubmissionInProgress instead of waiting.
func (sm *Manager) WithCart(chatID int64, fn func(cart *inventory.Cart) error) error {
	d := sm.chat(chatID)
	if !d.mu.TryLock() {
		return apperr.ErrSubmissionInProgress
	}
	defer d.mu.Unlock()
	return fn(d.cart)
}

// Borrower returns the borrower last used in the chat.
func (sm *Manager) Borrower(chatID int64) (model.Borrower, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if d, ok := sm.chats[chatID]; ok && d.hasBorrower {
		return d.borrower, true
	}
	return model.Borrower{}, false
}

// SetBorrower remembers the borrower for prefill.
func (sm *Manager) SetBorrower(chatID int64, b model.Borrower) {
	d := sm.chat(chatID)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	d.borrower = b
	d.hasBorrower = true
}

// ClearState drops the chat's cart and prefill.
func (sm *Manager) ClearState(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.chats, chatID)
}
