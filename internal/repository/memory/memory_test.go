package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository/storetest"
)

func TestDailyStateStore(t *testing.T) {
	storetest.RunDailyState(t, NewDailyStateStore())
}

func TestBorrowerStore(t *testing.T) {
	storetest.RunBorrower(t, NewBorrowerStore())
}

func TestPurgeDropsOlderDays(t *testing.T) {
	s := NewDailyStateStore()
	ctx := context.Background()
	storetest.RunDailyState(t, s)

	require.NoError(t, s.Purge(ctx, "2001-02-04"))

	st, err := s.Load(ctx, storetest.Day)
	require.NoError(t, err)
	assert.Empty(t, st.Events)
}

func TestLoadReturnsCopy(t *testing.T) {
	s := NewDailyStateStore()
	ctx := context.Background()
	require.NoError(t, s.MarkFeedback(ctx, storetest.Day, "pool", storetest.Now()))

	st, err := s.Load(ctx, storetest.Day)
	require.NoError(t, err)
	delete(st.Feedback, "pool")

	again, err := s.Load(ctx, storetest.Day)
	require.NoError(t, err)
	assert.True(t, again.FeedbackSubmitted("pool"))
}

func TestStaleRecordReadsAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unversioned", raw: `{"date":"2001-02-03","events":[{"id":"x","facility":"pool","date":"2001-02-03"}]}`},
		{name: "other day", raw: `{"version":1,"date":"2001-02-02","events":[{"id":"x","facility":"pool","date":"2001-02-02"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDailyStateStore()
			ctx := context.Background()
			s.days[storetest.Day] = []byte(tt.raw)

			st, err := s.Load(ctx, storetest.Day)
			require.NoError(t, err)
			assert.Equal(t, storetest.Day, st.Date)
			assert.Empty(t, st.Events)

			// the next write replaces the stale record at the current version
			require.NoError(t, s.MarkFeedback(ctx, storetest.Day, "pool", storetest.Now()))
			st, err = s.Load(ctx, storetest.Day)
			require.NoError(t, err)
			assert.Equal(t, model.DailyStateVersion, st.Version)
			assert.True(t, st.FeedbackSubmitted("pool"))
		})
	}
}

func TestNewerRecordVersionFails(t *testing.T) {
	s := NewDailyStateStore()
	s.days[storetest.Day] = []byte(`{"version":99,"date":"2001-02-03"}`)

	_, err := s.Load(context.Background(), storetest.Day)
	assert.Error(t, err)
}
