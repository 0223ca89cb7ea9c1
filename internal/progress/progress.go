// Package progress is the pure core of the check-in state machine. Services
// feed it the current daily state and an intent; it returns the event to
// submit, and after the backend accepts it, the next state and the facility
// transition. Nothing here performs I/O.
package progress

import (
	"time"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// Status is the per-facility, per-day check-in state.
type Status string

const (
	NotStarted Status = "not_started"
	InProgress Status = "in_progress"
	Complete   Status = "complete"
)

// Intent is a check-in request as typed by a desk user.
type Intent struct {
	Facility string
	Sub      string
	Counts   model.Counts
	Note     string
}

// Key returns the compound key the intent would record.
func (in Intent) Key() string { return model.CompoundKey(in.Facility, in.Sub) }

// Transition describes the effect of an applied event on its facility.
type Transition struct {
	Facility string
	Key      string
	From     Status
	To       Status
}

// Completed reports whether the facility became complete with this event.
func (t Transition) Completed() bool { return t.From != Complete && t.To == Complete }

// Validate checks the intent against the catalog.
func Validate(cat model.Catalog, in Intent) (model.Facility, error) {
	if in.Facility == "" {
		return model.Facility{}, apperr.New(apperr.CodeValidation, "facility is required")
	}
	f, ok := cat.Lookup(in.Facility)
	if !ok {
		return model.Facility{}, apperr.WithMetadata(apperr.CodeValidation, "unknown facility",
			map[string]string{"facility": in.Facility})
	}
	if f.IsCompound() {
		if in.Sub == "" {
			return f, apperr.WithMetadata(apperr.CodeValidation, "sub-facility is required",
				map[string]string{"facility": in.Facility})
		}
		if !f.HasSub(in.Sub) {
			return f, apperr.WithMetadata(apperr.CodeValidation, "unknown sub-facility",
				map[string]string{"facility": in.Facility, "sub": in.Sub})
		}
	} else if in.Sub != "" {
		return f, apperr.WithMetadata(apperr.CodeValidation, "facility has no sub-facilities",
			map[string]string{"facility": in.Facility, "sub": in.Sub})
	}
	if !in.Counts.Valid() {
		return f, apperr.New(apperr.CodeValidation, "counts must be non-negative")
	}
	return f, nil
}

// CanSubmit is the boolean form of Validate.
func CanSubmit(cat model.Catalog, in Intent) bool {
	_, err := Validate(cat, in)
	return err == nil
}

// Plan turns an intent into the event to submit. It fails with DuplicateEntry
// if the compound key is already recorded in st.
func Plan(cat model.Catalog, st model.DailyState, in Intent, now time.Time, id string) (model.CheckinEvent, error) {
	if _, err := Validate(cat, in); err != nil {
		return model.CheckinEvent{}, err
	}
	if st.HasEvent(in.Key()) {
		return model.CheckinEvent{}, apperr.WithMetadata(apperr.CodeDuplicateEntry, "already checked in today",
			map[string]string{"key": in.Key(), "date": st.Date.String()})
	}
	return model.CheckinEvent{
		ID:          id,
		FacilityKey: in.Facility,
		SubKey:      in.Sub,
		Date:        st.Date,
		Counts:      in.Counts,
		Note:        in.Note,
		RecordedAt:  now,
	}, nil
}

// Apply appends an accepted event. Applying an event whose key is already
// present returns st unchanged, so replays are harmless.
func Apply(cat model.Catalog, st model.DailyState, ev model.CheckinEvent) (model.DailyState, Transition) {
	f, _ := cat.Lookup(ev.FacilityKey)
	before := StatusOf(f, Project(st.Events))
	next := st.Clone()
	if !st.HasEvent(ev.Key()) && ev.Date == st.Date {
		next.Events = append(next.Events, ev)
	}
	after := StatusOf(f, Project(next.Events))
	return next, Transition{Facility: ev.FacilityKey, Key: ev.Key(), From: before, To: after}
}

// Project derives the done-set from the event log.
func Project(events []model.CheckinEvent) map[string]bool {
	done := make(map[string]bool, len(events))
	for _, e := range events {
		done[e.Key()] = true
	}
	return done
}

// StatusOf evaluates one facility against a done-set. Order is irrelevant.
func StatusOf(f model.Facility, done map[string]bool) Status {
	required := f.RequiredKeys()
	n := 0
	for _, k := range required {
		if done[k] {
			n++
		}
	}
	switch {
	case n == 0:
		return NotStarted
	case n == len(required):
		return Complete
	default:
		return InProgress
	}
}

// IsComplete reports whether every required key of f is done.
func IsComplete(f model.Facility, done map[string]bool) bool {
	return StatusOf(f, done) == Complete
}

// FacilityProgress is a per-facility summary for display.
type FacilityProgress struct {
	Facility model.Facility
	Status   Status
	Done     []string
	Missing  []string
	Feedback bool
}

// Summarize reports every catalog facility in display order.
func Summarize(cat model.Catalog, st model.DailyState) []FacilityProgress {
	done := Project(st.Events)
	out := make([]FacilityProgress, 0, len(cat.Keys()))
	for _, f := range cat.Facilities() {
		fp := FacilityProgress{Facility: f, Status: StatusOf(f, done), Feedback: st.FeedbackSubmitted(f.Key)}
		for _, k := range f.RequiredKeys() {
			if done[k] {
				fp.Done = append(fp.Done, k)
			} else {
				fp.Missing = append(fp.Missing, k)
			}
		}
		out = append(out, fp)
	}
	return out
}

// NeedsFeedback lists facilities complete for the day without feedback.
func NeedsFeedback(cat model.Catalog, st model.DailyState) []model.Facility {
	done := Project(st.Events)
	var out []model.Facility
	for _, f := range cat.Facilities() {
		if IsComplete(f, done) && !st.FeedbackSubmitted(f.Key) {
			out = append(out, f)
		}
	}
	return out
}
