package service

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
	"github.com/sfms-dev/facility_bot/internal/repository/memory"
)

func outdoor(sub string) progress.Intent {
	return progress.Intent{Facility: "outdoor", Sub: sub, Counts: model.Counts{Students: 5, Staff: 1}}
}

func TestOutdoorCompletesAfterAllSubs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f, _ := e.checkins.Catalog().Lookup("outdoor")

	for i, sub := range f.SubKeys {
		done, err := e.checkins.IsFacilityComplete(ctx, "outdoor")
		require.NoError(t, err)
		assert.False(t, done)

		res, err := e.checkins.RecordCheckin(ctx, outdoor(sub))
		require.NoError(t, err, sub)
		assert.Equal(t, i == len(f.SubKeys)-1, res.Completed, sub)
	}

	done, err := e.checkins.IsFacilityComplete(ctx, "outdoor")
	require.NoError(t, err)
	assert.True(t, done)

	need, err := e.feedback.RequiresFeedback(ctx, "outdoor")
	require.NoError(t, err)
	assert.True(t, need)
	assert.Equal(t, 7, e.srv.Calls("/api/checkin/event/"))
}

func TestDuplicateCheckinSendsNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.checkins.RecordCheckin(ctx, outdoor("tennis"))
	require.NoError(t, err)
	before, err := e.checkins.State(ctx)
	require.NoError(t, err)

	_, err = e.checkins.RecordCheckin(ctx, outdoor("tennis"))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeDuplicateEntry, apperr.CodeOf(err))

	after, err := e.checkins.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, e.srv.Calls("/api/checkin/event/"))
}

func TestInvalidCheckinSendsNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []progress.Intent{
		{Facility: "outdoor", Counts: model.Counts{Students: 1}},
		{Facility: "pool", Sub: "tennis"},
		{Facility: "gym"},
		{Facility: "pool", Counts: model.Counts{Students: -1}},
	}
	for _, in := range tests {
		assert.False(t, e.checkins.CanSubmit(in))
		_, err := e.checkins.RecordCheckin(ctx, in)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	}
	assert.Zero(t, e.srv.Calls("/api/checkin/event/"))
}

func TestBackendFailureLeavesStateUntouched(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.FailNext("/api/checkin/event/", http.StatusInternalServerError, "")

	_, err := e.checkins.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
	assert.Equal(t, apperr.CodeNetwork, apperr.CodeOf(err))

	st, err := e.checkins.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Events)

	_, err = e.checkins.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
	assert.NoError(t, err)
}

func TestBackendDuplicateIsMirrored(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.FailNext("/api/checkin/event/", http.StatusOK, `{"ok":false,"error":"already checked in"}`)

	_, err := e.checkins.RecordCheckin(ctx, progress.Intent{Facility: "track"})
	assert.Equal(t, apperr.CodeDuplicateEntry, apperr.CodeOf(err))

	done, err := e.checkins.IsFacilityComplete(ctx, "track")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRolloverDropsYesterday(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.checkins.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
	require.NoError(t, err)
	assert.True(t, res.Completed)

	e.clock.Advance(24 * time.Hour)
	require.NoError(t, e.checkins.Rollover(ctx))

	done, err := e.checkins.IsFacilityComplete(ctx, "pool")
	require.NoError(t, err)
	assert.False(t, done)

	done, err = e.checkins.IsFacilityCompleteOn(ctx, "pool", today)
	require.NoError(t, err)
	assert.True(t, done)

	st, err := e.checkins.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Day("2026-10-18"), st.Date)
	assert.Empty(t, st.Events)
}

func TestStateSurvivesRestart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.checkins.RecordCheckin(ctx, outdoor("futsal"))
	require.NoError(t, err)

	restarted := NewCheckinService(model.DefaultCatalog(), e.states, e.client, Clock{Now: e.clock.Now, Location: time.UTC}, zap.NewNop())
	_, err = restarted.RecordCheckin(ctx, outdoor("futsal"))
	assert.Equal(t, apperr.CodeDuplicateEntry, apperr.CodeOf(err))

	prog, err := restarted.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, progress.InProgress, prog[0].Status)
	assert.Equal(t, []string{"outdoor:futsal"}, prog[0].Done)
}

type blockingBackend struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) RecordCheckin(ctx context.Context, _ model.CheckinEvent) error {
	close(b.started)
	<-b.release
	return nil
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	b := &blockingBackend{started: make(chan struct{}), release: make(chan struct{})}
	clock := Clock{Now: func() time.Time { return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC) }, Location: time.UTC}
	svc := NewCheckinService(model.DefaultCatalog(), memory.NewDailyStateStore(), b, clock, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
	}()
	<-b.started

	_, err := svc.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
	assert.Equal(t, apperr.CodeSubmissionInProgress, apperr.CodeOf(err))

	close(b.release)
	wg.Wait()
	require.NoError(t, firstErr)

	_, err = svc.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
	assert.Equal(t, apperr.CodeDuplicateEntry, apperr.CodeOf(err))
}

// countingBackend blocks the first check-in until release is closed and
// counts every call.
type countingBackend struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *countingBackend) RecordCheckin(ctx context.Context, _ model.CheckinEvent) error {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-b.release
	}
	return nil
}

// stallClock stalls the second clock read made after arm until unblock is
// closed.
type stallClock struct {
	armed   atomic.Bool
	reads   atomic.Int32
	stalled chan struct{}
	unblock chan struct{}
}

func (c *stallClock) Now() time.Time {
	if c.armed.Load() && c.reads.Add(1) == 2 {
		close(c.stalled)
		<-c.unblock
	}
	return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
}

func TestCheckinSubmittedOnceWhenSecondCallerLags(t *testing.T) {
	b := &countingBackend{started: make(chan struct{}), release: make(chan struct{})}
	clk := &stallClock{stalled: make(chan struct{}), unblock: make(chan struct{})}
	svc := NewCheckinService(model.DefaultCatalog(), memory.NewDailyStateStore(), b,
		Clock{Now: clk.Now, Location: time.UTC}, zap.NewNop())
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
		firstDone <- err
	}()
	<-b.started
	clk.armed.Store(true)

	secondDone := make(chan error, 1)
	go func() {
		_, err := svc.RecordCheckin(ctx, progress.Intent{Facility: "pool"})
		secondDone <- err
	}()

	// The second caller either lags inside the clock or has already been
	// turned away; in both cases the first one then finishes.
	var errB error
	bFinished := false
	select {
	case <-clk.stalled:
	case errB = <-secondDone:
		bFinished = true
	}
	close(b.release)
	require.NoError(t, <-firstDone)
	close(clk.unblock)
	if !bFinished {
		errB = <-secondDone
	}

	require.Error(t, errB)
	assert.Contains(t,
		[]apperr.Code{apperr.CodeSubmissionInProgress, apperr.CodeDuplicateEntry},
		apperr.CodeOf(errB))
	assert.Equal(t, int32(1), b.calls.Load())

	st, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Events, 1)
}
