package invoice

import "errors"

var (
	// ErrTargetDateTooFarInFuture is returned when the requested target date
	// exceeds the configured future month horizon
	ErrTargetDateTooFarInFuture = errors.New("invoice target date too far in the future")

	// ErrInvalidDateSequence is returned when a billing period strategy
	// receives an inconsistent start/end/target date triple
	ErrInvalidDateSequence = errors.New("invalid date sequence")
)

// IsTargetDateTooFarInFuture checks if an error is a target date horizon error
func IsTargetDateTooFarInFuture(err error) bool {
	return errors.Is(err, ErrTargetDateTooFarInFuture)
}

// IsInvalidDateSequence checks if an error is an invalid date sequence error
func IsInvalidDateSequence(err error) bool {
	return errors.Is(err, ErrInvalidDateSequence)
}
