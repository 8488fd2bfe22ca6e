package booking

import "errors"

// Rejections. The flow state is left unchanged whenever Dispatch returns one.
var (
	ErrUnknownPractitioner = errors.New("booking: unknown practitioner")
	ErrIneligibleService   = errors.New("booking: service not offered by practitioner")
	ErrSlotUnavailable     = errors.New("booking: slot not available")
	ErrClientNotFound      = errors.New("booking: client not found")
	ErrInvalidTransition   = errors.New("booking: event not valid in current phase")
	ErrCommitInFlight      = errors.New("booking: commit in progress")
	ErrFlowCompleted       = errors.New("booking: reservation already completed")
)

// IsRejection reports whether err is a flow rejection as opposed to a
// collaborator failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrUnknownPractitioner, ErrIneligibleService, ErrSlotUnavailable, ErrClientNotFound,
		ErrInvalidTransition, ErrCommitInFlight, ErrFlowCompleted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
