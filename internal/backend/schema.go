package backend

import (
	"fmt"

	"github.com/sfms-dev/facility_bot/internal/model"
)

type okResponse struct {
	OK *bool `json:"ok"`
}

func (r *okResponse) validate() error {
	if r.OK == nil {
		return missing("ok")
	}
	return nil
}

type stockResponse struct {
	Equipments *[]stockRow `json:"equipments"`
}

type stockRow struct {
	Name  *string `json:"name"`
	Stock *int    `json:"stock"`
}

func (r *stockResponse) validate() error {
	if r.Equipments == nil {
		return missing("equipments")
	}
	for i, row := range *r.Equipments {
		if row.Name == nil || *row.Name == "" {
			return fmt.Errorf("equipments[%d]: %w", i, missing("name"))
		}
		if row.Stock == nil {
			return fmt.Errorf("equipments[%d]: %w", i, missing("stock"))
		}
	}
	return nil
}

func (r *stockResponse) levels() []model.StockLevel {
	out := make([]model.StockLevel, 0, len(*r.Equipments))
	for _, row := range *r.Equipments {
		out = append(out, model.StockLevel{Name: *row.Name, Stock: *row.Stock})
	}
	return out
}

type itemRow struct {
	ID    *int64  `json:"id"`
	Name  *string `json:"name"`
	Stock *int    `json:"stock"`
	Total *int    `json:"total"`
}

func (r itemRow) validate() error {
	switch {
	case r.ID == nil:
		return missing("id")
	case r.Name == nil:
		return missing("name")
	case r.Stock == nil:
		return missing("stock")
	case r.Total == nil:
		return missing("total")
	}
	return nil
}

func (r itemRow) item() model.EquipmentItem {
	return model.EquipmentItem{ID: *r.ID, Name: *r.Name, Stock: *r.Stock, Total: *r.Total}
}

// itemListResponse accepts the list under "rows" or, from older
// deployments, "data".
type itemListResponse struct {
	Rows *[]itemRow `json:"rows"`
	Data *[]itemRow `json:"data"`
}

func (r *itemListResponse) list() []itemRow {
	if r.Rows != nil {
		return *r.Rows
	}
	return *r.Data
}

func (r *itemListResponse) validate() error {
	if r.Rows == nil && r.Data == nil {
		return missing("rows")
	}
	for i, row := range r.list() {
		if err := row.validate(); err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
	}
	return nil
}

type itemResponse struct {
	OK  *bool    `json:"ok"`
	Row *itemRow `json:"row"`
}

func (r *itemResponse) validate() error {
	if r.Row != nil {
		return r.Row.validate()
	}
	if r.OK == nil {
		return missing("ok")
	}
	return nil
}

type pendingRow struct {
	StudentID        *string `json:"student_id"`
	Faculty          string  `json:"faculty"`
	Phone            string  `json:"phone"`
	Equipment        *string `json:"equipment"`
	Borrowed         *int    `json:"borrowed"`
	QuantityBorrowed *int    `json:"quantity_borrowed"`
	Remaining        *int    `json:"remaining"`
	QuantityPending  *int    `json:"quantity_pending"`
	BorrowDate       *string `json:"borrow_date"`
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func (r pendingRow) validate() error {
	switch {
	case r.StudentID == nil:
		return missing("student_id")
	case r.Equipment == nil:
		return missing("equipment")
	case firstInt(r.Borrowed, r.QuantityBorrowed) == nil:
		return missing("borrowed")
	case firstInt(r.Remaining, r.QuantityPending) == nil:
		return missing("remaining")
	case r.BorrowDate == nil:
		return missing("borrow_date")
	}
	if _, err := model.ParseDay(*r.BorrowDate); err != nil {
		return fmt.Errorf("borrow_date: %w", err)
	}
	return nil
}

func (r pendingRow) pending() model.PendingReturn {
	return model.PendingReturn{
		StudentID:     *r.StudentID,
		EquipmentName: *r.Equipment,
		Faculty:       r.Faculty,
		Phone:         r.Phone,
		BorrowDate:    model.Day(*r.BorrowDate),
		BorrowedQty:   *firstInt(r.Borrowed, r.QuantityBorrowed),
		PendingQty:    *firstInt(r.Remaining, r.QuantityPending),
	}
}

type pendingResponse struct {
	Rows *[]pendingRow `json:"rows"`
}

func (r *pendingResponse) validate() error {
	if r.Rows == nil {
		return missing("rows")
	}
	for i, row := range *r.Rows {
		if err := row.validate(); err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
	}
	return nil
}

type facultyResponse struct {
	Faculty string `json:"faculty"`
}

type ledgerRowWire struct {
	ID            int64  `json:"id"`
	Time          string `json:"time"`
	OccurredAt    string `json:"occurred_at"`
	StudentID     string `json:"student_id"`
	SID           string `json:"sid"`
	Faculty       string `json:"faculty"`
	Equipment     string `json:"equipment"`
	EquipmentName string `json:"equipment_name"`
	Action        string `json:"action"`
	Qty           *int   `json:"qty"`
	Quantity      *int   `json:"quantity"`
}

func orString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func (r ledgerRowWire) row() model.LedgerRow {
	action := model.LedgerBorrow
	if r.Action == string(model.LedgerReturn) {
		action = model.LedgerReturn
	}
	qty := 0
	if q := firstInt(r.Qty, r.Quantity); q != nil {
		qty = *q
	}
	return model.LedgerRow{
		ID:            r.ID,
		Time:          orString(r.Time, r.OccurredAt),
		StudentID:     orString(r.StudentID, r.SID),
		Faculty:       r.Faculty,
		EquipmentName: orString(r.Equipment, r.EquipmentName),
		Action:        action,
		Qty:           qty,
	}
}

type ledgerDayWire struct {
	Date  *string         `json:"date"`
	Total *int            `json:"total"`
	Rows  []ledgerRowWire `json:"rows"`
}

type ledgerResponse struct {
	Days *[]ledgerDayWire `json:"days"`
	Data *[]ledgerDayWire `json:"data"`
}

func (r *ledgerResponse) list() []ledgerDayWire {
	if r.Days != nil {
		return *r.Days
	}
	return *r.Data
}

func (r *ledgerResponse) validate() error {
	if r.Days == nil && r.Data == nil {
		return missing("days")
	}
	for i, d := range r.list() {
		if d.Date == nil {
			return fmt.Errorf("days[%d]: %w", i, missing("date"))
		}
	}
	return nil
}

type sessionResponse struct {
	OK       *bool  `json:"ok"`
	Username string `json:"username"`
}

func (r *sessionResponse) validate() error {
	if r.OK == nil {
		return missing("ok")
	}
	return nil
}
