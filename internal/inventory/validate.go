package inventory

import (
	"regexp"
	"strings"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

var (
	studentIDPattern = regexp.MustCompile(`^6\d{7}$`)
	phonePattern     = regexp.MustCompile(`^0\d{8,9}$`)
	nonDigits        = regexp.MustCompile(`\D`)
)

// Digits strips everything but 0-9, the way the desk forms accept input.
func Digits(s string) string { return nonDigits.ReplaceAllString(s, "") }

// ValidStudentID reports whether id is an 8-digit student id starting with 6.
func ValidStudentID(id string) bool { return studentIDPattern.MatchString(id) }

// ValidPhone reports whether phone is a 9-10 digit local number.
func ValidPhone(phone string) bool { return phonePattern.MatchString(phone) }

// NormalizeBorrower trims and digit-filters a borrower and validates it.
// Faculty may still be empty; callers resolve it before committing.
func NormalizeBorrower(b model.Borrower) (model.Borrower, error) {
	b.StudentID = Digits(b.StudentID)
	b.Phone = Digits(b.Phone)
	b.Faculty = strings.TrimSpace(b.Faculty)
	if !ValidStudentID(b.StudentID) {
		return b, apperr.WithMetadata(apperr.CodeValidation, "student id must be 8 digits starting with 6",
			map[string]string{"field": "student_id"})
	}
	if !ValidPhone(b.Phone) {
		return b, apperr.WithMetadata(apperr.CodeValidation, "phone must be a 9-10 digit local number",
			map[string]string{"field": "phone"})
	}
	return b, nil
}
