package model

import "time"

// Day is a local calendar date formatted as 2006-01-02.
type Day string

const DayLayout = "2006-01-02"

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day { return Day(t.Format(DayLayout)) }

// ParseDay validates a 2006-01-02 string.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", err
	}
	return Day(s), nil
}

func (d Day) String() string { return string(d) }

// Counts are the head counts reported with a check-in.
type Counts struct {
	Students int `json:"students"`
	Staff    int `json:"staff"`
}

func (c Counts) Valid() bool { return c.Students >= 0 && c.Staff >= 0 }

func (c Counts) Total() int { return c.Students + c.Staff }

// CheckinEvent is one accepted usage record. Events are append-only; at most
// one exists per (facility, sub, date).
type CheckinEvent struct {
	ID          string    `json:"id"`
	FacilityKey string    `json:"facility"`
	SubKey      string    `json:"sub,omitempty"`
	Date        Day       `json:"date"`
	Counts      Counts    `json:"counts"`
	Note        string    `json:"note,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Key is the compound key of the event.
func (e CheckinEvent) Key() string { return CompoundKey(e.FacilityKey, e.SubKey) }
