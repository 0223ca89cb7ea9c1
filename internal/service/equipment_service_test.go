package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/backend"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
)

var borrower = model.Borrower{StudentID: "61234567", Faculty: "Science", Phone: "0812345678"}

func loadStock(t *testing.T, e *env) {
	t.Helper()
	_, err := e.stock.ListStock(context.Background())
	require.NoError(t, err)
}

func pendingFor(e *env, name string) (model.PendingReturn, bool) {
	for _, r := range e.returns.ListPending(model.PendingFilter{}) {
		if inventory.NameKey(r.EquipmentName) == inventory.NameKey(name) {
			return r, true
		}
	}
	return model.PendingReturn{}, false
}

func available(e *env, name string) int {
	for _, it := range e.stock.Snapshot() {
		if inventory.NameKey(it.Name) == inventory.NameKey(name) {
			return it.Stock
		}
	}
	return -1
}

func TestBorrowThenReturnScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("basketball", 10, 10)
	loadStock(t, e)

	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "basketball", 2))
	_, err := e.borrows.Commit(ctx, 1, cart, borrower)
	require.NoError(t, err)

	assert.Equal(t, 8, available(e, "basketball"))
	row, ok := pendingFor(e, "basketball")
	require.True(t, ok)
	assert.Equal(t, 2, row.BorrowedQty)
	assert.Equal(t, 2, row.PendingQty)
	assert.Zero(t, cart.Len())

	left, err := e.returns.ReturnQuantity(ctx, row.Key(), 2)
	require.NoError(t, err)
	assert.Zero(t, left.PendingQty)
	assert.Equal(t, 10, available(e, "basketball"))
	_, ok = pendingFor(e, "basketball")
	assert.False(t, ok)
}

func TestBorrowOverStockScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("basketball", 10, 10)
	loadStock(t, e)

	cart := inventory.NewCart()
	err := e.borrows.AddToCart(cart, "basketball", 15)
	assert.Equal(t, apperr.CodeOverStock, apperr.CodeOf(err))

	stale := inventory.NewCart()
	require.NoError(t, stale.AddLine(inventory.NewStock(model.EquipmentItem{Name: "basketball", Stock: 20, Total: 20}), "basketball", 15))
	_, err = e.borrows.Commit(ctx, 1, stale, borrower)
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))

	assert.Equal(t, 10, available(e, "basketball"))
	assert.Empty(t, e.returns.ListPending(model.PendingFilter{}))
	assert.Zero(t, e.srv.Calls("/api/equipment/borrow/"))
	assert.Equal(t, 1, stale.Len())
}

func TestCommitValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("ball", 5, 5)
	loadStock(t, e)
	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "ball", 1))

	_, err := e.borrows.Commit(ctx, 1, cart, model.Borrower{StudentID: "5123", Phone: "0812345678"})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = e.borrows.Commit(ctx, 1, cart, model.Borrower{StudentID: "61234567", Phone: "0812345678"})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Equal(t, "faculty", apperr.Meta(err, "field"))

	_, err = e.borrows.Commit(ctx, 1, inventory.NewCart(), borrower)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Zero(t, e.srv.Calls("/api/equipment/borrow/"))
}

func TestCommitResolvesFacultyAndSavesProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("ball", 5, 5)
	e.srv.SetFaculty("61234567", "Engineering")
	loadStock(t, e)
	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "ball", 1))
	require.NoError(t, e.borrows.AddToCart(cart, "BALL", 2))

	res, err := e.borrows.Commit(ctx, 42, cart, model.Borrower{StudentID: "6123 4567", Phone: "081-234-5678"})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", res.Borrower.Faculty)
	assert.Equal(t, []model.BorrowLine{{EquipmentName: "ball", Qty: 3}}, res.Lines)

	p, ok, err := e.borrows.Profile(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Borrower{StudentID: "61234567", Faculty: "Engineering", Phone: "0812345678"}, p.Borrower)

	pending := e.srv.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].PendingQty)
}

func TestOverReturnLeavesRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("racket", 4, 4)
	loadStock(t, e)
	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "racket", 2))
	_, err := e.borrows.Commit(ctx, 1, cart, borrower)
	require.NoError(t, err)
	row, _ := pendingFor(e, "racket")

	_, err = e.returns.ReturnQuantity(ctx, row.Key(), 3)
	assert.Equal(t, apperr.CodeOverReturn, apperr.CodeOf(err))
	_, err = e.returns.ReturnQuantity(ctx, row.Key(), 0)
	assert.Equal(t, apperr.CodeOverReturn, apperr.CodeOf(err))

	got, ok := pendingFor(e, "racket")
	require.True(t, ok)
	assert.Equal(t, 2, got.PendingQty)
	assert.Zero(t, e.srv.Calls("/api/equipment/return/"))

	left, err := e.returns.ReturnQuantity(ctx, row.Key(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, left.PendingQty)
	assert.Equal(t, 3, available(e, "racket"))
}

func TestReturnReconcilesUnknownRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("cone", 6, 6)
	loadStock(t, e)
	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "cone", 2))
	_, err := e.borrows.Commit(ctx, 1, cart, borrower)
	require.NoError(t, err)

	fresh := NewReturnService(inventory.NewMirror(), e.client, e.returns.logger)
	key := model.PendingKey{StudentID: borrower.StudentID, EquipmentName: "Cone", BorrowDate: today}
	left, err := fresh.ReturnQuantity(ctx, key, 2)
	require.NoError(t, err)
	assert.Zero(t, left.PendingQty)

	_, err = fresh.ReturnQuantity(ctx, key, 1)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("ball", 5, 5)
	loadStock(t, e)
	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "ball", 1))
	_, err := e.borrows.Commit(ctx, 1, cart, borrower)
	require.NoError(t, err)

	days, err := e.returns.History(ctx, "6123", today)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, model.LedgerBorrow, days[0].Rows[0].Action)
}

func TestUpsertByName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("Ball", 3, 5)

	it, created, err := e.stock.UpsertByName(ctx, "ball", 4)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 7, it.Stock)
	assert.Equal(t, 7, it.Total)

	it, created, err = e.stock.UpsertByName(ctx, "Cone", 8)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, it.ID)
	assert.Equal(t, model.EquipmentItem{ID: it.ID, Name: "Cone", Stock: 8, Total: 8}, it)

	_, _, err = e.stock.UpsertByName(ctx, "Cone", 0)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Len(t, e.stock.Snapshot(), 2)
}

func TestAdjustEditDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ball := e.srv.AddItem("Ball", 3, 5)

	_, err := e.stock.AdjustStock(ctx, ball.ID, -4)
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))

	it, err := e.stock.AdjustStock(ctx, ball.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, it.Stock)

	it, err = e.stock.EditItem(ctx, ball.ID, "Football", 9)
	require.NoError(t, err)
	assert.Equal(t, "Football", it.Name)
	assert.Equal(t, 9, it.Total)
	got, _ := e.srv.Item("football")
	assert.Equal(t, 9, got.Stock)

	_, err = e.stock.AdjustStock(ctx, 999, 1)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	require.NoError(t, e.stock.DeleteItem(ctx, ball.ID))
	assert.Empty(t, e.stock.Snapshot())
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(e.stock.DeleteItem(ctx, ball.ID)))
}

func TestStockInvariantHolds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("Ball", 2, 2)
	loadStock(t, e)

	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "ball", 2))
	_, err := e.borrows.Commit(ctx, 1, cart, borrower)
	require.NoError(t, err)
	row, _ := pendingFor(e, "ball")
	_, err = e.returns.ReturnQuantity(ctx, row.Key(), 1)
	require.NoError(t, err)

	items, err := e.stock.ListStock(ctx)
	require.NoError(t, err)
	for _, it := range items {
		assert.True(t, it.Valid(), it.Name)
	}
}

// slowReturns holds the first return until release is closed.
type slowReturns struct {
	*backend.Client
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *slowReturns) Return(ctx context.Context, req model.ReturnRequest) error {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return b.Client.Return(ctx, req)
}

func TestConcurrentReturnOfSameRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.AddItem("racket", 4, 4)
	loadStock(t, e)
	cart := inventory.NewCart()
	require.NoError(t, e.borrows.AddToCart(cart, "racket", 2))
	_, err := e.borrows.Commit(ctx, 1, cart, borrower)
	require.NoError(t, err)
	row, _ := pendingFor(e, "racket")

	slow := &slowReturns{Client: e.client, started: make(chan struct{}), release: make(chan struct{})}
	returns := NewReturnService(e.mirror, slow, zap.NewNop())

	firstDone := make(chan error, 1)
	go func() {
		_, err := returns.ReturnQuantity(ctx, row.Key(), 2)
		firstDone <- err
	}()
	<-slow.started

	_, err = returns.ReturnQuantity(ctx, row.Key(), 2)
	assert.Equal(t, apperr.CodeSubmissionInProgress, apperr.CodeOf(err))

	close(slow.release)
	require.NoError(t, <-firstDone)

	_, err = returns.ReturnQuantity(ctx, row.Key(), 2)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.Equal(t, 1, e.srv.Calls("/api/equipment/return/"))
	assert.Equal(t, 4, available(e, "racket"))
}
