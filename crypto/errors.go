package crypto

import "errors"

var (
	// ErrInvalidArgument is returned when a caller violates an operation's
	// contract, for example by passing a buffer of the wrong size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported is returned when the active backend does not implement
	// an algorithm, curve or mode. It matches ErrInvalidArgument.
	ErrUnsupported error = &unsupportedError{}

	// ErrCryptographicFailure is returned when a backend reports a failure
	// while signing, deriving or decrypting. A signature that merely does not
	// verify is not a failure.
	ErrCryptographicFailure = errors.New("cryptographic failure")

	// ErrCollisionDetected is returned when the SHA-1 collision detection
	// heuristic fires.
	ErrCollisionDetected = errors.New("SHA-1 collision detected")

	// ErrSequencing is returned when an object is used in the wrong state,
	// such as writing after finalization.
	ErrSequencing = errors.New("operation out of sequence")

	// ErrSinkIO is returned when the underlying byte sink rejects a write.
	ErrSinkIO = errors.New("sink write failed")
)

type unsupportedError struct{}

func (*unsupportedError) Error() string { return "unsupported algorithm" }

// Is reports unsupported choices as invalid arguments as well.
func (*unsupportedError) Is(target error) bool {
	return target == ErrInvalidArgument
}
