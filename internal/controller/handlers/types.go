package handlers

import (
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/controller/state"
	"github.com/sfms-dev/facility_bot/internal/service"
)

// Services groups the desk services the commands call into.
type Services struct {
	Checkins *service.CheckinService
	Feedback *service.FeedbackService
	Stock    *service.StockService
	Borrows  *service.BorrowService
	Returns  *service.ReturnService
	Faculty  *service.FacultyService
	Session  *service.SessionService
}

// Handlers holds every dependency of the command handlers.
type Handlers struct {
	checkins     *service.CheckinService
	feedback     *service.FeedbackService
	stock        *service.StockService
	borrows      *service.BorrowService
	returns      *service.ReturnService
	faculty      *service.FacultyService
	session      *service.SessionService
	stateManager *state.Manager
	access       Access
	logger       *zap.Logger
}

func NewHandlers(svc Services, stateManager *state.Manager, access Access, logger *zap.Logger) *Handlers {
	return &Handlers{
		checkins:     svc.Checkins,
		feedback:     svc.Feedback,
		stock:        svc.Stock,
		borrows:      svc.Borrows,
		returns:      svc.Returns,
		faculty:      svc.Faculty,
		session:      svc.Session,
		stateManager: stateManager,
		access:       access,
		logger:       logger,
	}
}
