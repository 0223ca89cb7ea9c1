package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/backend"
)

// SessionBackend opens and inspects the backend session.
type SessionBackend interface {
	Login(ctx context.Context, username, password string) (backend.Session, error)
	Me(ctx context.Context) (backend.Session, error)
}

// SessionService keeps the desk's backend session alive with configured
// credentials.
type SessionService struct {
	backend  SessionBackend
	username string
	password string
	logger   *zap.Logger

	mu sync.Mutex
}

func NewSessionService(b SessionBackend, username, password string, logger *zap.Logger) *SessionService {
	return &SessionService{backend: b, username: username, password: password, logger: logger}
}

// Enabled reports whether credentials are configured.
func (s *SessionService) Enabled() bool { return s.username != "" }

// Ensure logs in unless the current session is still valid.
func (s *SessionService) Ensure(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.backend.Me(ctx); err == nil {
		return nil
	}
	return s.Relogin(ctx)
}

// Relogin opens a new session. Concurrent callers are serialized.
func (s *SessionService) Relogin(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.backend.Login(ctx, s.username, s.password)
	if err != nil {
		s.logger.Error("Backend login failed", zap.String("username", s.username), zap.Error(err))
		return err
	}
	s.logger.Info("Backend session opened", zap.String("username", sess.Username))
	return nil
}
