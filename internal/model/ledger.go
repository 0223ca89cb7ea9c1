package model

// LedgerAction is the kind of a borrow-record row.
type LedgerAction string

const (
	LedgerBorrow LedgerAction = "borrow"
	LedgerReturn LedgerAction = "return"
)

// LedgerRow is one borrow or return transaction as reported by staff records.
type LedgerRow struct {
	ID            int64        `json:"id"`
	Time          string       `json:"time"`
	StudentID     string       `json:"student_id"`
	Faculty       string       `json:"faculty"`
	EquipmentName string       `json:"equipment"`
	Action        LedgerAction `json:"action"`
	Qty           int          `json:"qty"`
}

// LedgerDay groups ledger rows of one date.
type LedgerDay struct {
	Date  Day         `json:"date"`
	Total int         `json:"total"`
	Rows  []LedgerRow `json:"rows"`
}
