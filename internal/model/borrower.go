package model

import "time"

// BorrowerProfile is the last borrower identity used at a desk, kept to
// prefill the next borrow.
type BorrowerProfile struct {
	Borrower
	UpdatedAt time.Time `json:"updated_at"`
}
