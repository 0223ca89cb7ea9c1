package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository"
)

// Reconciler re-syncs the mirror with the backend.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// BorrowService commits borrow carts.
type BorrowService struct {
	mirror     *inventory.Mirror
	backend    EquipmentBackend
	faculty    *FacultyService
	profiles   repository.BorrowerStore
	reconciler Reconciler
	clock      Clock
	logger     *zap.Logger
	inflight   *inflight
}

func NewBorrowService(
	mirror *inventory.Mirror,
	backend EquipmentBackend,
	faculty *FacultyService,
	profiles repository.BorrowerStore,
	reconciler Reconciler,
	clock Clock,
	logger *zap.Logger,
) *BorrowService {
	return &BorrowService{
		mirror:     mirror,
		backend:    backend,
		faculty:    faculty,
		profiles:   profiles,
		reconciler: reconciler,
		clock:      clock,
		logger:     logger,
		inflight:   newInflight(),
	}
}

// BorrowResult reports a committed cart.
type BorrowResult struct {
	Borrower model.Borrower
	Lines    []model.BorrowLine
	Pending  []model.PendingReturn
}

// AddToCart adds a line checked against the current stock mirror.
func (s *BorrowService) AddToCart(cart *inventory.Cart, name string, qty int) error {
	var err error
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { err = cart.AddLine(st, name, qty) })
	return err
}

// Commit sends the whole cart in one request. Every line is checked against
// the mirror first, so a failing line leaves stock and ledger untouched.
func (s *BorrowService) Commit(ctx context.Context, chatID int64, cart *inventory.Cart, b model.Borrower) (*BorrowResult, error) {
	b, err := inventory.NormalizeBorrower(b)
	if err != nil {
		return nil, err
	}
	if b.Faculty == "" {
		b.Faculty = s.faculty.Resolve(ctx, b.StudentID)
	}
	if b.Faculty == "" {
		return nil, apperr.WithMetadata(apperr.CodeValidation, "faculty is required", map[string]string{"field": "faculty"})
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "cart is empty")
	}

	release, err := s.inflight.begin("borrow:" + strconv.FormatInt(chatID, 10))
	if err != nil {
		return nil, err
	}
	defer release()

	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { err = inventory.CheckLines(st, lines) })
	if err != nil {
		return nil, err
	}

	if err := s.backend.Borrow(ctx, model.BorrowRequest{Borrower: b, Lines: lines}); err != nil {
		return nil, err
	}

	today := s.clock.Today()
	res := &BorrowResult{Borrower: b, Lines: lines}
	_ = s.mirror.Write(func(st *inventory.Stock, led *inventory.Ledger) error {
		for _, l := range lines {
			if err := st.Take(l.EquipmentName, l.Qty); err != nil {
				s.logger.Warn("Stock mirror out of date after borrow", zap.String("item", l.EquipmentName), zap.Error(err))
			}
			res.Pending = append(res.Pending, led.RecordBorrow(b, l.EquipmentName, today, l.Qty))
		}
		return nil
	})
	cart.Clear()

	s.logger.Info("Equipment borrowed",
		zap.String("student_id", b.StudentID),
		zap.String("faculty", b.Faculty),
		zap.Int("lines", len(lines)),
		zap.Int64("chat_id", chatID),
	)

	profile := model.BorrowerProfile{Borrower: b, UpdatedAt: s.clock.now()}
	if err := s.profiles.SaveProfile(ctx, chatID, profile); err != nil {
		s.logger.Warn("Failed to save borrower profile", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if err := s.reconciler.Reconcile(ctx); err != nil {
		s.logger.Warn("Reconcile after borrow failed", zap.Error(err))
	}
	return res, nil
}

// Profile returns the last borrower used in a chat for prefill.
func (s *BorrowService) Profile(ctx context.Context, chatID int64) (model.BorrowerProfile, bool, error) {
	return s.profiles.Profile(ctx, chatID)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
