package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sfms-dev/facility_bot/internal/model"
)

// PublicStock returns what is left to borrow per item.
func (c *Client) PublicStock(ctx context.Context) ([]model.StockLevel, error) {
	var resp stockResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/equipment/stock/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.levels(), nil
}

type borrowRequest struct {
	StudentID string             `json:"student_id"`
	Faculty   string             `json:"faculty"`
	Phone     string             `json:"phone"`
	Items     []model.BorrowLine `json:"items"`
}

// Borrow commits every cart line in one request.
func (c *Client) Borrow(ctx context.Context, req model.BorrowRequest) error {
	var resp okResponse
	return c.doJSON(ctx, http.MethodPost, "/api/equipment/borrow/", nil, borrowRequest{
		StudentID: req.StudentID,
		Faculty:   req.Faculty,
		Phone:     req.Phone,
		Items:     req.Lines,
	}, &resp)
}

type returnRequest struct {
	StudentID  string `json:"student_id"`
	Faculty    string `json:"faculty"`
	Phone      string `json:"phone"`
	Equipment  string `json:"equipment"`
	Qty        int    `json:"qty"`
	BorrowDate string `json:"borrow_date,omitempty"`
}

// Return gives back qty of one pending row.
func (c *Client) Return(ctx context.Context, req model.ReturnRequest) error {
	var resp okResponse
	return c.doJSON(ctx, http.MethodPost, "/api/equipment/return/", nil, returnRequest{
		StudentID:  req.StudentID,
		Faculty:    req.Faculty,
		Phone:      req.Phone,
		Equipment:  req.EquipmentName,
		Qty:        req.Qty,
		BorrowDate: req.BorrowDate.String(),
	}, &resp)
}

// PendingReturns lists outstanding borrows, optionally filtered server-side.
func (c *Client) PendingReturns(ctx context.Context, f model.PendingFilter) ([]model.PendingReturn, error) {
	q := url.Values{}
	if f.StudentID != "" {
		q.Set("student_id", f.StudentID)
	}
	if f.Date != "" {
		q.Set("date", f.Date.String())
	}
	var resp pendingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/equipment/pending-returns/", q, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.PendingReturn, 0, len(*resp.Rows))
	for _, r := range *resp.Rows {
		out = append(out, r.pending())
	}
	return out, nil
}

// FacultyFromStudent looks up a student's faculty. An unknown student yields
// an empty string and no error.
func (c *Client) FacultyFromStudent(ctx context.Context, studentID string) (string, error) {
	var resp facultyResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/equipment/faculty-from-student/",
		url.Values{"student_id": {studentID}}, nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.Faculty, nil
}

// ListEquipments returns the staff view of the inventory.
func (c *Client) ListEquipments(ctx context.Context) ([]model.EquipmentItem, error) {
	var resp itemListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/staff/equipments/", nil, nil, &resp); err != nil {
		return nil, err
	}
	rows := resp.list()
	out := make([]model.EquipmentItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item())
	}
	return out, nil
}

type itemWrite struct {
	Name  string `json:"name,omitempty"`
	Stock int    `json:"stock"`
	Total *int   `json:"total,omitempty"`
}

func itemPath(id int64) string { return fmt.Sprintf("/api/staff/equipment/%d/", id) }

// CreateEquipment posts a new item. When the backend echoes the row its id is
// returned, otherwise 0.
func (c *Client) CreateEquipment(ctx context.Context, it model.EquipmentItem) (model.EquipmentItem, error) {
	total := it.Total
	var resp itemResponse
	if err := c.doJSON(ctx, http.MethodPost, itemPath(0), nil, itemWrite{Name: it.Name, Stock: it.Stock, Total: &total}, &resp); err != nil {
		return model.EquipmentItem{}, err
	}
	if resp.Row != nil {
		return resp.Row.item(), nil
	}
	return it, nil
}

// UpdateEquipment patches name, stock and total of an item.
func (c *Client) UpdateEquipment(ctx context.Context, it model.EquipmentItem) (model.EquipmentItem, error) {
	total := it.Total
	var resp itemResponse
	if err := c.doJSON(ctx, http.MethodPatch, itemPath(it.ID), nil, itemWrite{Name: it.Name, Stock: it.Stock, Total: &total}, &resp); err != nil {
		return model.EquipmentItem{}, err
	}
	if resp.Row != nil {
		return resp.Row.item(), nil
	}
	return it, nil
}

func (c *Client) DeleteEquipment(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, itemPath(id), nil, nil, nil)
}

// BorrowRecords fetches the staff ledger report.
func (c *Client) BorrowRecords(ctx context.Context, studentID string, day model.Day) ([]model.LedgerDay, error) {
	q := url.Values{}
	if studentID != "" {
		q.Set("student_id", studentID)
	}
	if day != "" {
		q.Set("date", day.String())
	}
	var resp ledgerResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/staff/borrow-records/", q, nil, &resp); err != nil {
		return nil, err
	}
	days := resp.list()
	out := make([]model.LedgerDay, 0, len(days))
	for _, d := range days {
		ld := model.LedgerDay{Date: model.Day(*d.Date)}
		for _, r := range d.Rows {
			ld.Rows = append(ld.Rows, r.row())
		}
		ld.Total = len(ld.Rows)
		if d.Total != nil {
			ld.Total = *d.Total
		}
		out = append(out, ld)
	}
	return out, nil
}
