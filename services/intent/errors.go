package intent

import "fmt"

// Reason is the closed taxonomy of rejection reasons. Validators and the
// engine never bubble free-text exceptions to callers; every rejection
// carries exactly one of these.
type Reason string

const (
	ReasonInvalidIntentShape   Reason = "InvalidIntentShape"
	ReasonUnknownActor         Reason = "UnknownActor"
	ReasonNotYourTurn          Reason = "NotYourTurn"
	ReasonStaleVersionConflict Reason = "StaleVersionConflict"
	ReasonInsufficientFunds    Reason = "InsufficientFunds"
	ReasonTileUnavailable      Reason = "TileUnavailable"
	ReasonIncompleteSet        Reason = "IncompleteSet"
	ReasonCorruptedSnapshot    Reason = "CorruptedSnapshot"
	ReasonRoomFull             Reason = "RoomFull"
	ReasonRoomClosed           Reason = "RoomClosed"
	ReasonGameFinished         Reason = "GameFinished"
	ReasonGameNotStarted       Reason = "GameNotStarted"
)

// RejectionError wraps a Reason as an error so the apply pipeline can
// use normal error returns while callers still get the closed taxonomy.
type RejectionError struct {
	Reason Reason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Reject builds a RejectionError for the given reason.
func Reject(reason Reason, detail string) *RejectionError {
	return &RejectionError{Reason: reason, Detail: detail}
}

// ReasonOf extracts the taxonomy reason from an error, defaulting to
// InvalidIntentShape for anything that is not a RejectionError.
func ReasonOf(err error) Reason {
	if rej, ok := err.(*RejectionError); ok {
		return rej.Reason
	}
	return ReasonInvalidIntentShape
}
