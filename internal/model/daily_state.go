package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DailyStateVersion is bumped whenever the serialized record changes shape.
const DailyStateVersion = 1

// DailyState is the single per-day record behind check-in progress and the
// feedback gate. Completion is never stored; it is projected from Events.
type DailyState struct {
	Version  int                  `json:"version"`
	Date     Day                  `json:"date"`
	Events   []CheckinEvent       `json:"events"`
	Feedback map[string]time.Time `json:"feedback"`
}

func NewDailyState(day Day) DailyState {
	return DailyState{
		Version:  DailyStateVersion,
		Date:     day,
		Events:   []CheckinEvent{},
		Feedback: map[string]time.Time{},
	}
}

// Clone returns a deep copy safe to hand out to callers.
func (s DailyState) Clone() DailyState {
	out := DailyState{
		Version:  s.Version,
		Date:     s.Date,
		Events:   append([]CheckinEvent(nil), s.Events...),
		Feedback: make(map[string]time.Time, len(s.Feedback)),
	}
	for k, v := range s.Feedback {
		out.Feedback[k] = v
	}
	return out
}

// HasEvent reports whether a check-in with the compound key exists.
func (s DailyState) HasEvent(key string) bool {
	for _, e := range s.Events {
		if e.Key() == key {
			return true
		}
	}
	return false
}

func (s DailyState) FeedbackSubmitted(facility string) bool {
	_, ok := s.Feedback[facility]
	return ok
}

// EncodeDailyState serializes the record at the current version.
func EncodeDailyState(s DailyState) ([]byte, error) {
	s.Version = DailyStateVersion
	return json.Marshal(s)
}

// DecodeDailyState reads a stored record for day. Records from another day or
// from before versioning are reported as absent (ok=false); they never count
// as progress for today.
func DecodeDailyState(raw []byte, day Day) (state DailyState, ok bool, err error) {
	var s DailyState
	if err := json.Unmarshal(raw, &s); err != nil {
		return DailyState{}, false, fmt.Errorf("decode daily state: %w", err)
	}
	if s.Version > DailyStateVersion {
		return DailyState{}, false, fmt.Errorf("decode daily state: unsupported version %d", s.Version)
	}
	if s.Version < 1 || s.Date != day {
		return DailyState{}, false, nil
	}
	if s.Events == nil {
		s.Events = []CheckinEvent{}
	}
	if s.Feedback == nil {
		s.Feedback = map[string]time.Time{}
	}
	return s, true, nil
}
