package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
)

func TestFeedbackDeniedUntilComplete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.feedback.AuthorizeAccess(ctx, "outdoor")
	assert.Equal(t, apperr.CodeAccessDenied, apperr.CodeOf(err))

	_, err = e.feedback.SubmitFeedback(ctx, "outdoor", model.FeedbackPayload{Problems: "net torn"})
	assert.Equal(t, apperr.CodeAccessDenied, apperr.CodeOf(err))

	_, err = e.feedback.AuthorizeAccess(ctx, "gym")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Empty(t, e.srv.Feedback())
}

func TestFeedbackSubmitFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.checkins.RecordCheckin(ctx, progress.Intent{Facility: "pool", Counts: model.Counts{Students: 2}})
	require.NoError(t, err)

	pending, err := e.feedback.PendingFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pool", pending[0].Key)

	_, err = e.feedback.SubmitFeedback(ctx, "pool", model.FeedbackPayload{Problems: "  "})
	assert.Equal(t, apperr.CodeEmptySubmission, apperr.CodeOf(err))

	res, err := e.feedback.SubmitFeedback(ctx, "pool", model.FeedbackPayload{StaffName: "Nok", Detail: "water cloudy"})
	require.NoError(t, err)
	assert.True(t, res.Uploaded)
	assert.False(t, res.AlreadySubmitted)

	need, err := e.feedback.RequiresFeedback(ctx, "pool")
	require.NoError(t, err)
	assert.False(t, need)

	access, err := e.feedback.AuthorizeAccess(ctx, "pool")
	require.NoError(t, err)
	assert.True(t, access.AlreadySubmitted)

	res, err = e.feedback.SubmitFeedback(ctx, "pool", model.FeedbackPayload{
		File: &model.Attachment{Filename: "sheet.pdf", Content: []byte("%PDF")},
	})
	require.NoError(t, err)
	assert.True(t, res.AlreadySubmitted)

	forms := e.srv.Feedback()
	require.Len(t, forms, 2)
	assert.Equal(t, "Swimming pool", forms[0]["facility_label"])
	assert.Equal(t, today.String(), forms[0]["date"])
	assert.Equal(t, "sheet.pdf", forms[1]["register_file"])
}

func TestFeedbackWithoutUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	local := NewFeedbackService(e.checkins, e.client, false, zap.NewNop())
	_, err := e.checkins.RecordCheckin(ctx, progress.Intent{Facility: "track"})
	require.NoError(t, err)

	res, err := local.SubmitFeedback(ctx, "track", model.FeedbackPayload{Improve: "more lights"})
	require.NoError(t, err)
	assert.False(t, res.Uploaded)
	assert.Empty(t, e.srv.Feedback())

	sent, err := e.checkins.FeedbackSubmitted(ctx, "track")
	require.NoError(t, err)
	assert.True(t, sent)
}
