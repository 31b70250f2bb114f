package verify

import "net/http"

// ClientError is a request-level failure the caller can fix, carrying a
// machine-readable code and the HTTP status the API layer should map it to.
type ClientError struct {
	Code    string
	Message string
	Status  int
}

func (e *ClientError) Error() string {
	return e.Code + ": " + e.Message
}

// ErrGeocodeFailed is returned when the loss address cannot be resolved to
// coordinates. It is the only hard failure in the verification pipeline;
// every other degraded input lowers confidence instead of erroring.
var ErrGeocodeFailed = &ClientError{
	Code:    "DOL_GEOCODE_FAILED",
	Message: "address could not be resolved to coordinates",
	Status:  http.StatusBadRequest,
}

// ErrUnknownEventType is returned for an event type other than wind or hail.
var ErrUnknownEventType = &ClientError{
	Code:    "DOL_UNKNOWN_EVENT_TYPE",
	Message: `event_type must be "wind" or "hail"`,
	Status:  http.StatusBadRequest,
}
