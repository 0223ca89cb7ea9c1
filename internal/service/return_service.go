package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// ReturnService handles returns against the pending-return ledger and keeps
// the mirror reconciled with the backend.
type ReturnService struct {
	mirror   *inventory.Mirror
	backend  EquipmentBackend
	logger   *zap.Logger
	inflight *inflight
}

func NewReturnService(mirror *inventory.Mirror, backend EquipmentBackend, logger *zap.Logger) *ReturnService {
	return &ReturnService{mirror: mirror, backend: backend, logger: logger, inflight: newInflight()}
}

// Reconcile fetches stock and pending rows concurrently and overwrites the
// mirror with them. The mirror is left as is when either fetch fails.
func (s *ReturnService) Reconcile(ctx context.Context) error {
	var levels []model.StockLevel
	var rows []model.PendingReturn

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		levels, err = s.backend.PublicStock(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.backend.PendingReturns(gctx, model.PendingFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	_ = s.mirror.Write(func(st *inventory.Stock, led *inventory.Ledger) error {
		st.MergePublic(levels)
		led.Replace(rows)
		return nil
	})
	s.logger.Debug("Mirror reconciled", zap.Int("items", len(levels)), zap.Int("pending", len(rows)))
	return nil
}

// ListPending filters the mirrored ledger.
func (s *ReturnService) ListPending(f model.PendingFilter) []model.PendingReturn {
	var out []model.PendingReturn
	s.mirror.Read(func(_ *inventory.Stock, led *inventory.Ledger) { out = led.List(f) })
	return out
}

// ReturnQuantity gives back qty of one pending row. The returned row holds
// the quantity still pending.
func (s *ReturnService) ReturnQuantity(ctx context.Context, key model.PendingKey, qty int) (model.PendingReturn, error) {
	var row model.PendingReturn
	var err error
	check := func() {
		s.mirror.Read(func(_ *inventory.Stock, led *inventory.Ledger) { row, err = led.CheckReturn(key, qty) })
	}
	check()
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		if rerr := s.Reconcile(ctx); rerr != nil {
			return row, rerr
		}
		check()
	}
	if err != nil {
		return row, err
	}

	release, err := s.inflight.begin(fmt.Sprintf("return:%s|%s|%s", row.StudentID, inventory.NameKey(row.EquipmentName), row.BorrowDate))
	if err != nil {
		return row, err
	}
	defer release()

	// A return that finished between the check and the claim has changed the row.
	check()
	if err != nil {
		return row, err
	}

	err = s.backend.Return(ctx, model.ReturnRequest{
		Borrower:      model.Borrower{StudentID: row.StudentID, Faculty: row.Faculty, Phone: row.Phone},
		EquipmentName: row.EquipmentName,
		Qty:           qty,
		BorrowDate:    row.BorrowDate,
	})
	if err != nil {
		return row, err
	}

	var left model.PendingReturn
	_ = s.mirror.Write(func(st *inventory.Stock, led *inventory.Ledger) error {
		var applyErr error
		left, applyErr = led.ApplyReturn(key, qty)
		if applyErr != nil {
			s.logger.Warn("Ledger mirror out of date after return", zap.Error(applyErr))
		}
		st.Put(row.EquipmentName, qty)
		return nil
	})

	s.logger.Info("Equipment returned",
		zap.String("student_id", row.StudentID),
		zap.String("item", row.EquipmentName),
		zap.String("borrow_date", row.BorrowDate.String()),
		zap.Int("qty", qty),
		zap.Int("pending", left.PendingQty),
	)

	if err := s.Reconcile(ctx); err != nil {
		s.logger.Warn("Reconcile after return failed", zap.Error(err))
	}
	return left, nil
}

// History passes the staff borrow-record report through.
func (s *ReturnService) History(ctx context.Context, studentID string, day model.Day) ([]model.LedgerDay, error) {
	return s.backend.BorrowRecords(ctx, inventory.Digits(studentID), day)
}
