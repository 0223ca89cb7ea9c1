package service

import (
	"context"
	"time"

	"github.com/sfms-dev/facility_bot/internal/model"
)

// CheckinBackend records usage events on the backend.
type CheckinBackend interface {
	RecordCheckin(ctx context.Context, ev model.CheckinEvent) error
}

// FeedbackBackend uploads feedback forms.
type FeedbackBackend interface {
	SubmitFeedback(ctx context.Context, form model.FeedbackForm) error
}

// EquipmentBackend is the inventory and borrow surface of the backend.
type EquipmentBackend interface {
	PublicStock(ctx context.Context) ([]model.StockLevel, error)
	ListEquipments(ctx context.Context) ([]model.EquipmentItem, error)
	CreateEquipment(ctx context.Context, it model.EquipmentItem) (model.EquipmentItem, error)
	UpdateEquipment(ctx context.Context, it model.EquipmentItem) (model.EquipmentItem, error)
	DeleteEquipment(ctx context.Context, id int64) error
	Borrow(ctx context.Context, req model.BorrowRequest) error
	Return(ctx context.Context, req model.ReturnRequest) error
	PendingReturns(ctx context.Context, f model.PendingFilter) ([]model.PendingReturn, error)
	BorrowRecords(ctx context.Context, studentID string, day model.Day) ([]model.LedgerDay, error)
}

// FacultyBackend maps student ids to faculties.
type FacultyBackend interface {
	FacultyFromStudent(ctx context.Context, studentID string) (string, error)
}

// Clock gives the services the current time and the desk's calendar.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock uses time.Now in loc. A nil loc means time.Local.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Today is the local calendar date.
func (c Clock) Today() model.Day { return model.DayOf(c.now()) }
