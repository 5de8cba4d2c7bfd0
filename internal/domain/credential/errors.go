package credential

import (
	"errors"
	"fmt"
)

var (
	ErrUnrepresentableRequest = errors.New("parsed credential request cannot be turned into an order")
	ErrUnsupportedFormat      = fmt.Errorf("%w: unsupported credential format", ErrUnrepresentableRequest)
	ErrMissingParsedRequest   = errors.New("authorization service returned OK without a parsed request")
)

const (
	msgMissingContent = "Missing request content."
	msgMissingToken   = "Missing access token."
	msgUpstream       = "The authorization service could not be reached."
	msgIncomplete     = "The authorization service returned an incomplete response."
	msgOrder          = "The credential request could not be converted into an issuance order."
	msgInternal       = "Internal server error."
)

// Failure is a terminal pipeline outcome. Message is safe to show to the
// client; Token is only set for 401 failures and is meant for audit logging.
type Failure struct {
	Stage   Stage
	Action  Action
	Status  int
	Message string
	Token   string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s failed with status %d: %s: %v", f.Stage, f.Status, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s failed with status %d: %s", f.Stage, f.Status, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}
