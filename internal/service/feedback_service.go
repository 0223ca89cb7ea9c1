package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
)

// FeedbackService gates the daily facility feedback on check-in completion.
type FeedbackService struct {
	checkins *CheckinService
	backend  FeedbackBackend
	upload   bool
	logger   *zap.Logger
}

// NewFeedbackService uploads forms to the backend only when upload is set;
// otherwise submissions are only marked locally.
func NewFeedbackService(checkins *CheckinService, backend FeedbackBackend, upload bool, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{checkins: checkins, backend: backend, upload: upload, logger: logger}
}

// Access is the result of a successful access check.
type Access struct {
	Facility         model.Facility
	AlreadySubmitted bool
}

// FeedbackResult reports an accepted submission.
type FeedbackResult struct {
	Facility         model.Facility
	AlreadySubmitted bool
	Uploaded         bool
}

func (s *FeedbackService) RequiresFeedback(ctx context.Context, facility string) (bool, error) {
	done, err := s.checkins.IsFacilityComplete(ctx, facility)
	if err != nil || !done {
		return false, err
	}
	sent, err := s.checkins.FeedbackSubmitted(ctx, facility)
	if err != nil {
		return false, err
	}
	return !sent, nil
}

// PendingFeedback lists the facilities complete today without feedback.
func (s *FeedbackService) PendingFeedback(ctx context.Context) ([]model.Facility, error) {
	st, err := s.checkins.State(ctx)
	if err != nil {
		return nil, err
	}
	return progress.NeedsFeedback(s.checkins.Catalog(), st), nil
}

// AuthorizeAccess fails with AccessDenied unless the facility is complete today.
func (s *FeedbackService) AuthorizeAccess(ctx context.Context, facility string) (*Access, error) {
	f, ok := s.checkins.Catalog().Lookup(facility)
	if !ok {
		return nil, apperr.WithMetadata(apperr.CodeValidation, "unknown facility", map[string]string{"facility": facility})
	}
	done, err := s.checkins.IsFacilityComplete(ctx, facility)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, apperr.WithMetadata(apperr.CodeAccessDenied, "check-in for "+f.DisplayName+" is not complete today",
			map[string]string{"facility": facility})
	}
	sent, err := s.checkins.FeedbackSubmitted(ctx, facility)
	if err != nil {
		return nil, err
	}
	return &Access{Facility: f, AlreadySubmitted: sent}, nil
}

// SubmitFeedback accepts a feedback form for a completed facility.
// Resubmission is allowed and reported in the result.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, facility string, payload model.FeedbackPayload) (*FeedbackResult, error) {
	access, err := s.AuthorizeAccess(ctx, facility)
	if err != nil {
		return nil, err
	}
	if payload.Empty() {
		return nil, apperr.New(apperr.CodeEmptySubmission, "fill in at least one field or attach a file")
	}

	res := &FeedbackResult{Facility: access.Facility}
	if s.upload {
		form := model.FeedbackForm{
			Date:            s.checkins.Today(),
			Facility:        access.Facility.Key,
			FacilityLabel:   access.Facility.DisplayName,
			FeedbackPayload: payload,
		}
		if err := s.backend.SubmitFeedback(ctx, form); err != nil {
			return nil, err
		}
		res.Uploaded = true
	}

	already, err := s.checkins.MarkFeedback(ctx, facility)
	if err != nil {
		return nil, err
	}
	res.AlreadySubmitted = already || access.AlreadySubmitted

	s.logger.Info("Feedback submitted",
		zap.String("facility", facility),
		zap.Bool("uploaded", res.Uploaded),
		zap.Bool("resubmission", res.AlreadySubmitted),
		zap.Bool("attachment", payload.File != nil),
	)
	return res, nil
}
