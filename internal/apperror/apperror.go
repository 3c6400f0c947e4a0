// Package apperror defines the error taxonomy shared by the registration and
// check-in workflows and maps it to HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated is returned when no user is logged in.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the user lacks rights on an existing resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateRegistration is returned when the user is already registered for the event.
	ErrDuplicateRegistration = errors.New("already registered for this event")
	// ErrCapacityExceeded is returned when the event is full.
	ErrCapacityExceeded = errors.New("event is fully booked")
	// ErrAlreadyCheckedIn is returned for a second check-in or a cancel after check-in.
	ErrAlreadyCheckedIn = errors.New("registration is already checked in")
	// ErrValidationFailed is returned when submitted data is invalid.
	ErrValidationFailed = errors.New("validation failed")
	// ErrEventClosed is returned when registering for an unpublished or started event.
	ErrEventClosed = errors.New("registration for this event is closed")
	// ErrUserInactive is returned when a deactivated user triggers a workflow.
	ErrUserInactive = errors.New("user account is deactivated")
	// ErrAmbiguousLookup is returned when a check-in search matches several registrations.
	ErrAmbiguousLookup = errors.New("lookup matches more than one registration")
	// ErrCheckInClosed is returned for a self check-in outside the check-in window.
	ErrCheckInClosed = errors.New("check-in is not open for this event")
)

// ValidationErrors holds field level messages. It unwraps to ErrValidationFailed.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}

	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap makes errors.Is(err, ErrValidationFailed) work.
func (v ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// Status maps an error of the taxonomy to an HTTP status code.
// ErrUnauthenticated maps to 401, handlers rendering pages redirect to the login instead.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateRegistration),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyCheckedIn),
		errors.Is(err, ErrEventClosed),
		errors.Is(err, ErrAmbiguousLookup),
		errors.Is(err, ErrCheckInClosed):
		return http.StatusConflict
	case errors.Is(err, ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUserInactive):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text shown to the user. Unknown errors are not leaked.
func Message(err error) string {
	var verr ValidationErrors

	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "Please correct the highlighted fields"
	case Status(err) == http.StatusInternalServerError:
		return "Something went wrong, please try again later"
	default:
		msg := rootMessage(err)

		return strings.ToUpper(msg[:1]) + msg[1:]
	}
}

// rootMessage returns the message of the first taxonomy error in the chain.
func rootMessage(err error) string {
	for _, known := range []error{
		ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrDuplicateRegistration,
		ErrCapacityExceeded, ErrAlreadyCheckedIn, ErrEventClosed, ErrUserInactive,
		ErrAmbiguousLookup, ErrCheckInClosed,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return err.Error()
}
