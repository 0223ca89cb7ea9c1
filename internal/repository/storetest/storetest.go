// Package storetest holds the behaviour every storage backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository"
)

// Day is far enough from real dates that integration runs do not collide
// with live data.
const Day = model.Day("2001-02-03")

func event(facility, sub string, at time.Time) model.CheckinEvent {
	return model.CheckinEvent{
		ID:          uuid.NewString(),
		FacilityKey: facility,
		SubKey:      sub,
		Date:        Day,
		Counts:      model.Counts{Students: 4, Staff: 1},
		RecordedAt:  at,
	}
}

// RunDailyState exercises a DailyStateStore that starts empty for Day.
func RunDailyState(t *testing.T, store repository.DailyStateStore) {
	ctx := context.Background()
	at := time.Date(2001, 2, 3, 9, 0, 0, 0, time.UTC)

	st, err := store.Load(ctx, Day)
	require.NoError(t, err)
	assert.Empty(t, st.Events)
	assert.Equal(t, Day, st.Date)

	require.NoError(t, store.AppendEvent(ctx, event("outdoor", "tennis", at)))
	require.NoError(t, store.AppendEvent(ctx, event("pool", "", at.Add(time.Minute))))

	err = store.AppendEvent(ctx, event("outdoor", "tennis", at.Add(2*time.Minute)))
	assert.Equal(t, apperr.CodeDuplicateEntry, apperr.CodeOf(err))

	require.NoError(t, store.MarkFeedback(ctx, Day, "pool", at.Add(time.Hour)))
	require.NoError(t, store.MarkFeedback(ctx, Day, "pool", at.Add(2*time.Hour)))

	st, err = store.Load(ctx, Day)
	require.NoError(t, err)
	require.Len(t, st.Events, 2)
	assert.Equal(t, "outdoor:tennis", st.Events[0].Key())
	assert.Equal(t, "pool", st.Events[1].Key())
	assert.True(t, st.FeedbackSubmitted("pool"))
	assert.True(t, st.Feedback["pool"].Equal(at.Add(time.Hour)))

	other, err := store.Load(ctx, "2001-02-04")
	require.NoError(t, err)
	assert.Empty(t, other.Events)

	require.NoError(t, store.Purge(ctx, "2001-02-04"))
}

// RunBorrower exercises a BorrowerStore.
func RunBorrower(t *testing.T, store repository.BorrowerStore) {
	ctx := context.Background()
	const chat = int64(-1001)

	_, ok, err := store.Profile(ctx, chat)
	require.NoError(t, err)
	assert.False(t, ok)

	p := model.BorrowerProfile{
		Borrower:  model.Borrower{StudentID: "61234567", Faculty: "Science", Phone: "0812345678"},
		UpdatedAt: time.Date(2001, 2, 3, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveProfile(ctx, chat, p))
	p.Phone = "0899999999"
	require.NoError(t, store.SaveProfile(ctx, chat, p))

	got, ok, err := store.Profile(ctx, chat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Borrower, got.Borrower)
}

// Now is a fixed instant on Day.
func Now() time.Time { return time.Date(2001, 2, 3, 12, 0, 0, 0, time.UTC) }
