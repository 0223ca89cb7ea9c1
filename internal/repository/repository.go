// Package repository holds the storage ports of the desk and their Postgres
// implementations. The memory and redisstore subpackages implement the same
// ports.
package repository

import (
	"context"
	"time"

	"github.com/sfms-dev/facility_bot/internal/model"
)

// DailyStateStore persists the per-day check-in record.
type DailyStateStore interface {
	// Load returns the record for day, or an empty record when none exists.
	Load(ctx context.Context, day model.Day) (model.DailyState, error)
	// AppendEvent stores an accepted event. A second event with the same
	// (date, facility, sub) fails with apperr.CodeDuplicateEntry.
	AppendEvent(ctx context.Context, ev model.CheckinEvent) error
	// MarkFeedback records a feedback submission. Repeats keep the first time.
	MarkFeedback(ctx context.Context, day model.Day, facility string, at time.Time) error
	// Purge drops records of days before the given one.
	Purge(ctx context.Context, before model.Day) error
}

// BorrowerStore remembers the last borrower identity used per chat.
type BorrowerStore interface {
	SaveProfile(ctx context.Context, chatID int64, p model.BorrowerProfile) error
	// Profile reports ok=false when the chat has no saved profile.
	Profile(ctx context.Context, chatID int64) (p model.BorrowerProfile, ok bool, err error)
}
