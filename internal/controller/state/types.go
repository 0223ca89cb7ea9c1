package state

import (
	"sync"

	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// ChatData holds everything a desk chat keeps between commands.
type ChatData struct {
	// mu guards cart and is held for the whole of a cart operation,
	// including a borrow commit.
	mu   sync.Mutex
	cart *inventory.Cart

	borrower    model.Borrower
	hasBorrower bool
}
