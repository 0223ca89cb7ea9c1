package model

// EquipmentItem mirrors one inventory row. Invariant: 0 <= Stock <= Total.
type EquipmentItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Total int    `json:"total"`
}

// Valid reports whether the stock invariant holds.
func (e EquipmentItem) Valid() bool { return e.Stock >= 0 && e.Stock <= e.Total }

// StockLevel is the public view of an item: name and what is left to borrow.
type StockLevel struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// BorrowLine is one line of a borrow cart.
type BorrowLine struct {
	EquipmentName string `json:"equipment"`
	Qty           int    `json:"qty"`
}

// Borrower identifies who takes equipment out.
type Borrower struct {
	StudentID string `json:"student_id"`
	Faculty   string `json:"faculty"`
	Phone     string `json:"phone"`
}

// BorrowRequest is a committed cart.
type BorrowRequest struct {
	Borrower
	Lines []BorrowLine `json:"items"`
}

// ReturnRequest gives back qty of one pending row.
type ReturnRequest struct {
	Borrower
	EquipmentName string `json:"equipment"`
	Qty           int    `json:"qty"`
	BorrowDate    Day    `json:"borrow_date"`
}

// PendingKey identifies a pending-return row.
type PendingKey struct {
	StudentID     string
	EquipmentName string
	BorrowDate    Day
}

// PendingReturn tracks borrowed-but-unreturned quantity.
// Invariant: 0 <= PendingQty <= BorrowedQty.
type PendingReturn struct {
	StudentID     string `json:"student_id"`
	EquipmentName string `json:"equipment"`
	Faculty       string `json:"faculty"`
	Phone         string `json:"phone"`
	BorrowDate    Day    `json:"borrow_date"`
	BorrowedQty   int    `json:"borrowed"`
	PendingQty    int    `json:"pending"`
}

func (p PendingReturn) Key() PendingKey {
	return PendingKey{StudentID: p.StudentID, EquipmentName: p.EquipmentName, BorrowDate: p.BorrowDate}
}

// PendingFilter narrows a pending-return listing. Empty fields match all rows.
type PendingFilter struct {
	StudentID string
	Date      Day
}
