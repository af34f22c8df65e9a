package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrVisitNotFound    = errors.New("booking visit not found")
	ErrSeatMapNotLoaded = errors.New("seat map is not loaded")
	ErrSeatNotFound     = errors.New("seat not found in seat map")
	ErrEmptySelection   = errors.New("no seats selected")
	ErrSubmitInProgress = errors.New("booking is already being submitted")
	ErrNotFound         = errors.New("resource not found")
	ErrPosterRequired   = errors.New("poster image is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrCacheMiss        = errors.New("cache miss")
)

// APIError - ответ апстрима со статусом вне 2xx
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// NetworkError is returned when the upstream produced no response at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInvalid      Kind = "invalid"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUpstream     Kind = "upstream"
	KindNetwork      Kind = "network"
	KindUnknown      Kind = "unknown"
)

// User-facing messages.
const (
	MsgSessionExpired = "Your session has expired, please log in again"
	MsgNoPermission   = "You do not have permission to perform this action"
	MsgRequestFailed  = "Request failed, please try again"
	MsgCheckNetwork   = "Could not reach the server, please check your connection"
	MsgUnknown        = "An unknown error occurred, please try again"
	MsgVisitExpired   = "Your seat selection has expired, please reload the seat map"
	MsgEmptySelection = "Please select at least one seat"
	MsgSeatNotFound   = "The selected seat does not exist in this showtime"
	MsgSubmitPending  = "Your booking is already being submitted"
	MsgNotFound       = "The requested item was not found"
	MsgPosterRequired = "Please choose a poster image"
	MsgPasswordNeeded = "Password is required"
)

// Classified is an error reduced to what a caller shows the user.
type Classified struct {
	Kind    Kind
	Status  int
	Message string
}

// Classify maps any error produced while serving a request to a status code and message.
func Classify(err error) Classified {
	var apiErr *APIError
	var netErr *NetworkError

	switch {
	case err == nil:
		return Classified{Kind: KindUnknown, Status: http.StatusInternalServerError, Message: MsgUnknown}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionNotFound):
		return Classified{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: MsgSessionExpired}
	case errors.Is(err, ErrForbidden):
		return Classified{Kind: KindForbidden, Status: http.StatusForbidden, Message: MsgNoPermission}
	case errors.Is(err, ErrVisitNotFound), errors.Is(err, ErrSeatMapNotLoaded):
		return Classified{Kind: KindNotFound, Status: http.StatusNotFound, Message: MsgVisitExpired}
	case errors.Is(err, ErrSeatNotFound):
		return Classified{Kind: KindNotFound, Status: http.StatusNotFound, Message: MsgSeatNotFound}
	case errors.Is(err, ErrNotFound):
		return Classified{Kind: KindNotFound, Status: http.StatusNotFound, Message: MsgNotFound}
	case errors.Is(err, ErrPosterRequired):
		return Classified{Kind: KindInvalid, Status: http.StatusBadRequest, Message: MsgPosterRequired}
	case errors.Is(err, ErrPasswordRequired):
		return Classified{Kind: KindInvalid, Status: http.StatusBadRequest, Message: MsgPasswordNeeded}
	case errors.Is(err, ErrEmptySelection):
		return Classified{Kind: KindInvalid, Status: http.StatusBadRequest, Message: MsgEmptySelection}
	case errors.Is(err, ErrSubmitInProgress):
		return Classified{Kind: KindConflict, Status: http.StatusConflict, Message: MsgSubmitPending}
	case errors.As(err, &apiErr):
		return classifyAPIError(apiErr)
	case errors.As(err, &netErr):
		return Classified{Kind: KindNetwork, Status: http.StatusBadGateway, Message: MsgCheckNetwork}
	default:
		return Classified{Kind: KindUnknown, Status: http.StatusInternalServerError, Message: MsgUnknown}
	}
}

func classifyAPIError(e *APIError) Classified {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return Classified{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: MsgSessionExpired}
	case e.StatusCode == http.StatusForbidden:
		return Classified{Kind: KindForbidden, Status: http.StatusForbidden, Message: MsgNoPermission}
	case e.StatusCode == http.StatusBadRequest:
		return Classified{Kind: KindInvalid, Status: http.StatusBadRequest, Message: messageOr(e.Message)}
	case e.StatusCode == http.StatusNotFound:
		return Classified{Kind: KindNotFound, Status: http.StatusNotFound, Message: messageOr(e.Message)}
	case e.StatusCode == http.StatusConflict:
		return Classified{Kind: KindConflict, Status: http.StatusConflict, Message: messageOr(e.Message)}
	case e.StatusCode >= 500:
		return Classified{Kind: KindUpstream, Status: http.StatusBadGateway, Message: messageOr(e.Message)}
	default:
		return Classified{Kind: KindUnknown, Status: http.StatusInternalServerError, Message: MsgUnknown}
	}
}

func messageOr(msg string) string {
	if msg == "" {
		return MsgRequestFailed
	}
	return msg
}

// IsUnauthorized reports whether err must end the current session.
func IsUnauthorized(err error) bool {
	return Classify(err).Kind == KindUnauthorized
}
