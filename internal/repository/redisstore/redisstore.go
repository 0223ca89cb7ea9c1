// Package redisstore implements the storage ports on Redis. Each day lives in
// two hashes that expire after DayTTL.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// DayTTL keeps yesterday readable across a late rollover.
const DayTTL = 72 * time.Hour

func eventsKey(day model.Day) string   { return fmt.Sprintf("sfms:daily:%s:events", day) }
func feedbackKey(day model.Day) string { return fmt.Sprintf("sfms:daily:%s:feedback", day) }
func profileKey(chatID int64) string   { return "sfms:borrower:" + strconv.FormatInt(chatID, 10) }

type DailyStateStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewDailyStateStore uses DayTTL when ttl is zero.
func NewDailyStateStore(rdb redis.UniversalClient, ttl time.Duration) *DailyStateStore {
	if ttl <= 0 {
		ttl = DayTTL
	}
	return &DailyStateStore{rdb: rdb, ttl: ttl}
}

func (s *DailyStateStore) Load(ctx context.Context, day model.Day) (model.DailyState, error) {
	st := model.NewDailyState(day)

	pipe := s.rdb.Pipeline()
	evCmd := pipe.HGetAll(ctx, eventsKey(day))
	fbCmd := pipe.HGetAll(ctx, feedbackKey(day))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return st, fmt.Errorf("load daily state %s: %w", day, err)
	}

	for field, raw := range evCmd.Val() {
		var ev model.CheckinEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return st, fmt.Errorf("decode event %s: %w", field, err)
		}
		if ev.Date != day {
			continue
		}
		st.Events = append(st.Events, ev)
	}
	sort.Slice(st.Events, func(i, j int) bool {
		if !st.Events[i].RecordedAt.Equal(st.Events[j].RecordedAt) {
			return st.Events[i].RecordedAt.Before(st.Events[j].RecordedAt)
		}
		return st.Events[i].ID < st.Events[j].ID
	})

	for facility, raw := range fbCmd.Val() {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return st, fmt.Errorf("decode feedback mark %s: %w", facility, err)
		}
		st.Feedback[facility] = at
	}
	return st, nil
}

// AppendEvent relies on HSETNX on the compound key for idempotency.
func (s *DailyStateStore) AppendEvent(ctx context.Context, ev model.CheckinEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := eventsKey(ev.Date)

	pipe := s.rdb.TxPipeline()
	set := pipe.HSetNX(ctx, key, ev.Key(), raw)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	if !set.Val() {
		return apperr.WithMetadata(apperr.CodeDuplicateEntry, "already checked in today",
			map[string]string{"key": ev.Key(), "date": ev.Date.String()})
	}
	return nil
}

func (s *DailyStateStore) MarkFeedback(ctx context.Context, day model.Day, facility string, at time.Time) error {
	key := feedbackKey(day)
	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, facility, at.Format(time.RFC3339Nano))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark feedback: %w", err)
	}
	return nil
}

// Purge is a no-op: day keys expire on their own.
func (s *DailyStateStore) Purge(context.Context, model.Day) error { return nil }

type BorrowerStore struct {
	rdb redis.UniversalClient
}

func NewBorrowerStore(rdb redis.UniversalClient) *BorrowerStore {
	return &BorrowerStore{rdb: rdb}
}

func (s *BorrowerStore) SaveProfile(ctx context.Context, chatID int64, p model.BorrowerProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode borrower profile: %w", err)
	}
	if err := s.rdb.Set(ctx, profileKey(chatID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save borrower profile: %w", err)
	}
	return nil
}

func (s *BorrowerStore) Profile(ctx context.Context, chatID int64) (model.BorrowerProfile, bool, error) {
	raw, err := s.rdb.Get(ctx, profileKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.BorrowerProfile{}, false, nil
	}
	if err != nil {
		return model.BorrowerProfile{}, false, fmt.Errorf("get borrower profile: %w", err)
	}
	var p model.BorrowerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.BorrowerProfile{}, false, fmt.Errorf("decode borrower profile: %w", err)
	}
	return p, true, nil
}
