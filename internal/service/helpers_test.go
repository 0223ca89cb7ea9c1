package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/backend"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository/memory"
	"github.com/sfms-dev/facility_bot/internal/testkit/fakebackend"
)

const today = model.Day("2026-10-17")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	srv      *fakebackend.Server
	client   *backend.Client
	clock    *testClock
	states   *memory.DailyStateStore
	profiles *memory.BorrowerStore
	mirror   *inventory.Mirror

	checkins *CheckinService
	feedback *FeedbackService
	stock    *StockService
	faculty  *FacultyService
	borrows  *BorrowService
	returns  *ReturnService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()
	srv := fakebackend.New(t, today)
	client, err := backend.NewClient(srv.URL, time.Second, logger)
	require.NoError(t, err)

	tc := &testClock{now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)}
	clock := Clock{Now: tc.Now, Location: time.UTC}

	e := &env{
		srv:      srv,
		client:   client,
		clock:    tc,
		states:   memory.NewDailyStateStore(),
		profiles: memory.NewBorrowerStore(),
		mirror:   inventory.NewMirror(),
	}
	e.checkins = NewCheckinService(model.DefaultCatalog(), e.states, client, clock, logger)
	e.feedback = NewFeedbackService(e.checkins, client, true, logger)
	e.stock = NewStockService(e.mirror, client, logger)
	e.faculty = NewFacultyService(client, logger)
	e.returns = NewReturnService(e.mirror, client, logger)
	e.borrows = NewBorrowService(e.mirror, client, e.faculty, e.profiles, e.returns, clock, logger)
	return e
}
