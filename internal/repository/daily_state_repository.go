package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository/base"
)

// DailyStateRepository stores check-in events and feedback marks in Postgres.
// The unique (day, facility, sub) constraint is the idempotency key.
type DailyStateRepository struct {
	*base.Repository
}

func NewDailyStateRepository(pool *pgxpool.Pool) *DailyStateRepository {
	return &DailyStateRepository{Repository: base.NewRepository(pool)}
}

func (r *DailyStateRepository) Load(ctx context.Context, day model.Day) (model.DailyState, error) {
	st := model.NewDailyState(day)

	rows, err := r.Query(ctx, `
		SELECT id, facility, sub, students, staff, note, recorded_at
		FROM checkin_events
		WHERE day = $1::date
		ORDER BY recorded_at, id
	`, day.String())
	if err != nil {
		return st, fmt.Errorf("load checkin events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev := model.CheckinEvent{Date: day}
		if err := rows.Scan(&ev.ID, &ev.FacilityKey, &ev.SubKey, &ev.Counts.Students, &ev.Counts.Staff, &ev.Note, &ev.RecordedAt); err != nil {
			return st, fmt.Errorf("scan checkin event: %w", err)
		}
		st.Events = append(st.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("iterate checkin events: %w", err)
	}

	fb, err := r.Query(ctx, `SELECT facility, submitted_at FROM feedback_marks WHERE day = $1::date`, day.String())
	if err != nil {
		return st, fmt.Errorf("load feedback marks: %w", err)
	}
	defer fb.Close()

	for fb.Next() {
		var facility string
		var at time.Time
		if err := fb.Scan(&facility, &at); err != nil {
			return st, fmt.Errorf("scan feedback mark: %w", err)
		}
		st.Feedback[facility] = at
	}
	if err := fb.Err(); err != nil {
		return st, fmt.Errorf("iterate feedback marks: %w", err)
	}
	return st, nil
}

func (r *DailyStateRepository) AppendEvent(ctx context.Context, ev model.CheckinEvent) error {
	n, err := r.ExecAffected(ctx, `
		INSERT INTO checkin_events (id, day, facility, sub, students, staff, note, recorded_at)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT checkin_events_identity DO NOTHING
	`, ev.ID, ev.Date.String(), ev.FacilityKey, ev.SubKey, ev.Counts.Students, ev.Counts.Staff, ev.Note, ev.RecordedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return duplicate(ev)
		}
		return fmt.Errorf("insert checkin event: %w", err)
	}
	if n == 0 {
		return duplicate(ev)
	}
	return nil
}

func (r *DailyStateRepository) MarkFeedback(ctx context.Context, day model.Day, facility string, at time.Time) error {
	_, err := r.ExecAffected(ctx, `
		INSERT INTO feedback_marks (day, facility, submitted_at)
		VALUES ($1::date, $2, $3)
		ON CONFLICT (day, facility) DO NOTHING
	`, day.String(), facility, at)
	if err != nil {
		return fmt.Errorf("mark feedback: %w", err)
	}
	return nil
}

func (r *DailyStateRepository) Purge(ctx context.Context, before model.Day) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM checkin_events WHERE day < $1::date`, before.String()); err != nil {
			return fmt.Errorf("purge checkin events: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM feedback_marks WHERE day < $1::date`, before.String()); err != nil {
			return fmt.Errorf("purge feedback marks: %w", err)
		}
		return nil
	})
}

func duplicate(ev model.CheckinEvent) error {
	return apperr.WithMetadata(apperr.CodeDuplicateEntry, "already checked in today",
		map[string]string{"key": ev.Key(), "date": ev.Date.String()})
}
