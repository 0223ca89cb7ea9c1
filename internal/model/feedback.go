package model

import "strings"

// Attachment is a file sent along with a feedback form.
type Attachment struct {
	Filename string
	Content  []byte
}

// FeedbackPayload is the daily facility feedback form.
type FeedbackPayload struct {
	StaffName string
	Problems  string
	Detail    string
	Suggest   string
	Improve   string
	File      *Attachment
}

// Empty reports whether nothing was filled in and no file attached.
func (p FeedbackPayload) Empty() bool {
	for _, s := range []string{p.Problems, p.Detail, p.Suggest, p.Improve} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return p.File == nil || len(p.File.Content) == 0
}

// FeedbackForm is what gets uploaded for a facility and day.
type FeedbackForm struct {
	Date          Day
	Facility      string
	FacilityLabel string
	FeedbackPayload
}
