package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
	"github.com/sfms-dev/facility_bot/internal/repository"
)

// CheckinService owns today's check-in state. The state is loaded from the
// store on first use and again whenever the local date changes.
type CheckinService struct {
	catalog  model.Catalog
	store    repository.DailyStateStore
	backend  CheckinBackend
	clock    Clock
	logger   *zap.Logger
	inflight *inflight

	mu     sync.Mutex
	state  model.DailyState
	loaded bool
}

func NewCheckinService(
	catalog model.Catalog,
	store repository.DailyStateStore,
	backend CheckinBackend,
	clock Clock,
	logger *zap.Logger,
) *CheckinService {
	return &CheckinService{
		catalog:  catalog,
		store:    store,
		backend:  backend,
		clock:    clock,
		logger:   logger,
		inflight: newInflight(),
	}
}

// CheckinResult reports an accepted check-in.
type CheckinResult struct {
	Event      model.CheckinEvent
	Transition progress.Transition
	// Completed is true when this check-in completed its facility.
	Completed bool
}

func (s *CheckinService) Catalog() model.Catalog { return s.catalog }

func (s *CheckinService) Today() model.Day { return s.clock.Today() }

// CanSubmit reports whether the intent passes local validation.
func (s *CheckinService) CanSubmit(in progress.Intent) bool {
	return progress.CanSubmit(s.catalog, in)
}

// State returns a copy of today's record.
func (s *CheckinService) State(ctx context.Context) (model.DailyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureToday(ctx); err != nil {
		return model.DailyState{}, err
	}
	return s.state.Clone(), nil
}

// Rollover switches the cached state to today if the date changed. It is
// called by the scheduler and lazily by every read.
func (s *CheckinService) Rollover(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureToday(ctx)
}

// ensureToday must be called with s.mu held.
func (s *CheckinService) ensureToday(ctx context.Context) error {
	today := s.clock.Today()
	if s.loaded && s.state.Date == today {
		return nil
	}
	st, err := s.store.Load(ctx, today)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "load daily state", err)
	}
	prev := s.state.Date
	s.state = st
	s.loaded = true

	if prev != "" {
		s.logger.Info("Daily state rolled over",
			zap.String("from", prev.String()),
			zap.String("to", today.String()),
			zap.Int("events", len(st.Events)),
		)
		if err := s.store.Purge(ctx, prev); err != nil {
			s.logger.Warn("Failed to purge old daily state", zap.String("before", prev.String()), zap.Error(err))
		}
	}
	return nil
}

// RecordCheckin validates, submits and applies one check-in.
func (s *CheckinService) RecordCheckin(ctx context.Context, in progress.Intent) (*CheckinResult, error) {
	if _, err := progress.Validate(s.catalog, in); err != nil {
		return nil, err
	}

	// The duplicate check must see every event accepted before the claim.
	release, err := s.inflight.begin(in.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	ev, err := progress.Plan(s.catalog, st, in, s.clock.now(), uuid.NewString())
	if err != nil {
		return nil, err
	}

	if err := s.backend.RecordCheckin(ctx, ev); err != nil {
		if apperr.CodeOf(err) == apperr.CodeDuplicateEntry {
			// Recorded elsewhere; mirror it so progress matches the backend.
			s.apply(ctx, ev)
			s.logger.Warn("Check-in already recorded on backend", zap.String("key", ev.Key()), zap.String("date", ev.Date.String()))
		}
		return nil, err
	}

	tr := s.apply(ctx, ev)

	s.logger.Info("Check-in recorded",
		zap.String("event_id", ev.ID),
		zap.String("key", ev.Key()),
		zap.String("date", ev.Date.String()),
		zap.Int("count", ev.Counts.Total()),
		zap.String("status", string(tr.To)),
	)

	return &CheckinResult{Event: ev, Transition: tr, Completed: tr.Completed()}, nil
}

// apply persists an accepted event and folds it into the cached state. A
// store failure is logged; the backend already holds the event.
func (s *CheckinService) apply(ctx context.Context, ev model.CheckinEvent) progress.Transition {
	if err := s.store.AppendEvent(ctx, ev); err != nil && apperr.CodeOf(err) != apperr.CodeDuplicateEntry {
		s.logger.Error("Failed to persist check-in", zap.String("key", ev.Key()), zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureToday(ctx); err != nil {
		s.logger.Error("Failed to reload daily state", zap.Error(err))
	}
	next, tr := progress.Apply(s.catalog, s.state, ev)
	s.state = next
	return tr
}

// IsFacilityComplete reports completion for today.
func (s *CheckinService) IsFacilityComplete(ctx context.Context, facility string) (bool, error) {
	return s.IsFacilityCompleteOn(ctx, facility, s.clock.Today())
}

// IsFacilityCompleteOn reports completion for any stored day.
func (s *CheckinService) IsFacilityCompleteOn(ctx context.Context, facility string, day model.Day) (bool, error) {
	f, ok := s.catalog.Lookup(facility)
	if !ok {
		return false, apperr.WithMetadata(apperr.CodeValidation, "unknown facility", map[string]string{"facility": facility})
	}
	var st model.DailyState
	var err error
	if day == s.clock.Today() {
		st, err = s.State(ctx)
	} else {
		st, err = s.store.Load(ctx, day)
	}
	if err != nil {
		return false, fmt.Errorf("load state for %s: %w", day, err)
	}
	return progress.IsComplete(f, progress.Project(st.Events)), nil
}

// Progress summarizes every facility for today.
func (s *CheckinService) Progress(ctx context.Context) ([]progress.FacilityProgress, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return progress.Summarize(s.catalog, st), nil
}

// MarkFeedback records today's feedback for facility. It reports whether
// feedback had already been submitted.
func (s *CheckinService) MarkFeedback(ctx context.Context, facility string) (already bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureToday(ctx); err != nil {
		return false, err
	}
	already = s.state.FeedbackSubmitted(facility)
	at := s.clock.now()
	if err := s.store.MarkFeedback(ctx, s.state.Date, facility, at); err != nil {
		return already, apperr.Wrap(apperr.CodeInternal, "save feedback mark", err)
	}
	if !already {
		s.state.Feedback[facility] = at
	}
	return already, nil
}

func (s *CheckinService) FeedbackSubmitted(ctx context.Context, facility string) (bool, error) {
	st, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	return st.FeedbackSubmitted(facility), nil
}
