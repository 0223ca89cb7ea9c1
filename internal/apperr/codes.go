package apperr

// Code is a machine-readable error category.
type Code string

const (
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeDuplicateEntry       Code = "DUPLICATE_ENTRY"
	CodeInsufficientStock    Code = "INSUFFICIENT_STOCK"
	CodeOverStock            Code = "OVER_STOCK"
	CodeOverReturn           Code = "OVER_RETURN"
	CodeAccessDenied         Code = "ACCESS_DENIED"
	CodeEmptySubmission      Code = "EMPTY_SUBMISSION"
	CodeNotFound             Code = "NOT_FOUND"
	CodeAuthRequired         Code = "AUTH_REQUIRED"
	CodeNetwork              Code = "NETWORK_ERROR"
	CodeParse                Code = "PARSE_ERROR"
	CodeRejected             Code = "REJECTED"
	CodeSubmissionInProgress Code = "SUBMISSION_IN_PROGRESS"
	CodeInternal             Code = "INTERNAL"
)

// Local reports whether the code is raised before any network call.
func (c Code) Local() bool {
	switch c {
	case CodeValidation, CodeDuplicateEntry, CodeInsufficientStock, CodeOverStock,
		CodeOverReturn, CodeAccessDenied, CodeEmptySubmission, CodeSubmissionInProgress:
		return true
	}
	return false
}
