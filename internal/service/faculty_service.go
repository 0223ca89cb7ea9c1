package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/inventory"
)

// FacultyService resolves student ids to faculties. Lookups never fail the
// caller; successful ones are cached for the process lifetime.
type FacultyService struct {
	backend FacultyBackend
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func NewFacultyService(backend FacultyBackend, logger *zap.Logger) *FacultyService {
	return &FacultyService{backend: backend, logger: logger, cache: make(map[string]string)}
}

// Resolve returns the faculty of a valid student id, or "" when unknown or
// when the lookup fails.
func (s *FacultyService) Resolve(ctx context.Context, studentID string) string {
	studentID = inventory.Digits(studentID)
	if !inventory.ValidStudentID(studentID) {
		return ""
	}

	s.mu.RLock()
	fac, ok := s.cache[studentID]
	s.mu.RUnlock()
	if ok {
		return fac
	}

	fac, err := s.backend.FacultyFromStudent(ctx, studentID)
	if err != nil {
		s.logger.Warn("Faculty lookup failed", zap.String("student_id", studentID), zap.Error(err))
		return ""
	}
	fac = strings.TrimSpace(fac)
	if fac == "" {
		return ""
	}

	s.mu.Lock()
	s.cache[studentID] = fac
	s.mu.Unlock()
	return fac
}
