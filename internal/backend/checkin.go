package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/sfms-dev/facility_bot/internal/model"
)

type checkinRequest struct {
	Facility   string `json:"facility"`
	OutdoorSub string `json:"outdoor_sub"`
	Count      int    `json:"count"`
	Note       string `json:"note"`
}

// RecordCheckin submits one usage event. The backend stores the combined head
// count only.
func (c *Client) RecordCheckin(ctx context.Context, ev model.CheckinEvent) error {
	var resp okResponse
	return c.doJSON(ctx, http.MethodPost, "/api/checkin/event/", nil, checkinRequest{
		Facility:   ev.FacilityKey,
		OutdoorSub: ev.SubKey,
		Count:      ev.Counts.Total(),
		Note:       ev.Note,
	}, &resp)
}

// SubmitFeedback uploads a feedback form as multipart data.
func (c *Client) SubmitFeedback(ctx context.Context, form model.FeedbackForm) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"date", form.Date.String()},
		{"facility", form.Facility},
		{"facility_label", form.FacilityLabel},
		{"staff_name", form.StaffName},
		{"problems", form.Problems},
		{"detail", form.Detail},
		{"suggest", form.Suggest},
		{"improve", form.Improve},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write feedback field %s: %w", f[0], err)
		}
	}
	if form.File != nil && len(form.File.Content) > 0 {
		fw, err := w.CreateFormFile("register_file", form.File.Filename)
		if err != nil {
			return fmt.Errorf("create feedback file part: %w", err)
		}
		if _, err := fw.Write(form.File.Content); err != nil {
			return fmt.Errorf("write feedback file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close feedback form: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/checkin/feedback/", nil, &buf, w.FormDataContentType(), nil)
}
