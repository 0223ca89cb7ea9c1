// Package memory implements the storage ports in process memory. State is
// lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// DailyStateStore keeps one encoded record per day, so a record of another
// version or date reads as absent exactly as it would from a durable store.
type DailyStateStore struct {
	mu   sync.Mutex
	days map[model.Day][]byte
}

func NewDailyStateStore() *DailyStateStore {
	return &DailyStateStore{days: make(map[model.Day][]byte)}
}

func (s *DailyStateStore) Load(_ context.Context, day model.Day) (model.DailyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day(day)
}

func (s *DailyStateStore) AppendEvent(_ context.Context, ev model.CheckinEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.day(ev.Date)
	if err != nil {
		return err
	}
	if st.HasEvent(ev.Key()) {
		return apperr.WithMetadata(apperr.CodeDuplicateEntry, "already checked in today",
			map[string]string{"key": ev.Key(), "date": ev.Date.String()})
	}
	st.Events = append(st.Events, ev)
	return s.put(st)
}

func (s *DailyStateStore) MarkFeedback(_ context.Context, day model.Day, facility string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.day(day)
	if err != nil {
		return err
	}
	if _, ok := st.Feedback[facility]; !ok {
		st.Feedback[facility] = at
	}
	return s.put(st)
}

func (s *DailyStateStore) Purge(_ context.Context, before model.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for day := range s.days {
		if day < before {
			delete(s.days, day)
		}
	}
	return nil
}

// day decodes the stored record; a missing or stale one yields a fresh state.
func (s *DailyStateStore) day(day model.Day) (model.DailyState, error) {
	raw, ok := s.days[day]
	if !ok {
		return model.NewDailyState(day), nil
	}
	st, ok, err := model.DecodeDailyState(raw, day)
	if err != nil {
		return model.DailyState{}, fmt.Errorf("load %s: %w", day, err)
	}
	if !ok {
		return model.NewDailyState(day), nil
	}
	return st, nil
}

func (s *DailyStateStore) put(st model.DailyState) error {
	raw, err := model.EncodeDailyState(st)
	if err != nil {
		return fmt.Errorf("save %s: %w", st.Date, err)
	}
	s.days[st.Date] = raw
	return nil
}

type BorrowerStore struct {
	mu       sync.RWMutex
	profiles map[int64]model.BorrowerProfile
}

func NewBorrowerStore() *BorrowerStore {
	return &BorrowerStore{profiles: make(map[int64]model.BorrowerProfile)}
}

func (s *BorrowerStore) SaveProfile(_ context.Context, chatID int64, p model.BorrowerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[chatID] = p
	return nil
}

func (s *BorrowerStore) Profile(_ context.Context, chatID int64) (model.BorrowerProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[chatID]
	return p, ok, nil
}
