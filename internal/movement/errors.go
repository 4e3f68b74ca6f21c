package movement

import (
	"errors"
	"strings"
)

var (
	// ErrSubmissionInFlight is returned when a draft is edited or submitted
	// while a previous submission has not finished.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	// ErrNetwork wraps transport failures talking to the backend.
	ErrNetwork = errors.New("network error")

	ErrIndexOutOfRange = errors.New("line item index out of range")
	ErrUnknownField    = errors.New("unknown line item field")
	ErrInvalidType     = errors.New("invalid movement type")
	ErrDraftNotFound   = errors.New("draft not found")
)

const (
	genericFailureMessage = "Failed to create stock movement."
	networkFailureMessage = "Network error. Please check your connection and try again."
)

// RejectedError is returned when the backend answers success=false. Its
// message is the backend errors one per line (not comma separated), else the
// backend message, else a generic failure text.
type RejectedError struct {
	Message string
	Errors  []string
}

func (e *RejectedError) Error() string {
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, "\n")
	}
	if e.Message != "" {
		return e.Message
	}
	return genericFailureMessage
}

// UserMessage renders the blocking alert text for a submission error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	var rejected *RejectedError
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &rejected):
		return rejected.Error()
	case errors.Is(err, ErrNetwork):
		return networkFailureMessage
	case errors.Is(err, ErrSubmissionInFlight):
		return "Please wait for the current submission to finish."
	default:
		return genericFailureMessage
	}
}
