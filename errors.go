package openpgp

import (
	"errors"
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// Sentinel errors for errors.Is() checks. The first six are shared with the
// crypto package so that backend failures match them directly.
var (
	// ErrInvalidArgument is returned for wrong-size buffers, unsupported
	// algorithms and invalid stage nesting.
	ErrInvalidArgument = crypto.ErrInvalidArgument

	// ErrUnsupported is returned when the linked backend lacks an algorithm.
	// It also matches ErrInvalidArgument.
	ErrUnsupported = crypto.ErrUnsupported

	// ErrCryptographicFailure is returned when a backend operation fails.
	ErrCryptographicFailure = crypto.ErrCryptographicFailure

	// ErrCollisionDetected is returned when SHA-1 collision detection fires.
	ErrCollisionDetected = crypto.ErrCollisionDetected

	// ErrSequencing is returned for writes after finalize and for
	// out-of-order finalization.
	ErrSequencing = crypto.ErrSequencing

	// ErrSinkIO is returned when the output sink rejects a write.
	ErrSinkIO = crypto.ErrSinkIO

	// ErrNoRecipients is returned when an encryptor has neither an eligible
	// recipient key nor a password.
	ErrNoRecipients = fmt.Errorf("%w: no recipients or passwords", crypto.ErrInvalidArgument)

	// ErrNoSigningKey is returned when a signer is built without a usable
	// private key.
	ErrNoSigningKey = fmt.Errorf("%w: no signing key", crypto.ErrInvalidArgument)

	// ErrDecryptionFailed is returned when no key or password recovers the
	// session key, or when the encrypted data fails authentication.
	ErrDecryptionFailed = fmt.Errorf("%w: decryption failed", crypto.ErrCryptographicFailure)

	// ErrUnknownIssuer is reported in a SignatureResult when no verification
	// key matches the signature's issuer.
	ErrUnknownIssuer = errors.New("unknown signature issuer")

	// ErrInvalidImportData is returned when exported key data is invalid.
	ErrInvalidImportData = errors.New("invalid import data")
)

// OpenPGPError is implemented by all typed errors of this package.
type OpenPGPError interface {
	error
	OpenPGPError() // marker method
}

// SinkError wraps a failure of the caller's output sink.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink write failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SinkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *SinkError) Is(target error) bool {
	return target == ErrSinkIO
}

// OpenPGPError implements the OpenPGPError interface.
func (e *SinkError) OpenPGPError() {}

// StageError records which pipeline stage failed and during which step.
type StageError struct {
	Stage string // "armor", "encrypt", "sign", "literal"
	Op    string // "build", "write", "finalize"
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s: %v", e.Stage, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// OpenPGPError implements the OpenPGPError interface.
func (e *StageError) OpenPGPError() {}

// KeyError reports a failure tied to one key.
type KeyError struct {
	KeyID     KeyID
	Algorithm crypto.PublicKeyAlgorithm
	Err       error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key %s (%v): %v", e.KeyID, e.Algorithm, e.Err)
}

// Unwrap returns the underlying error.
func (e *KeyError) Unwrap() error {
	return e.Err
}

// OpenPGPError implements the OpenPGPError interface.
func (e *KeyError) OpenPGPError() {}

func keyError(k *PublicKey, err error) error {
	if err == nil {
		return nil
	}
	return &KeyError{KeyID: k.KeyID(), Algorithm: k.Algorithm, Err: err}
}
