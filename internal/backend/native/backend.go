package native

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// Name identifies this backend.
const Name = "native"

var randReader io.Reader

func reader() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// Backend is the standard library backend. The zero value is ready to use
// and safe for concurrent use.
type Backend struct{}

var _ crypto.Provider = Backend{}

// Name returns "native".
func (Backend) Name() string { return Name }

// Random fills buf from the backend's random source.
func (Backend) Random(buf []byte) error {
	if _, err := io.ReadFull(reader(), buf); err != nil {
		return fmt.Errorf("%w: read random: %v", crypto.ErrCryptographicFailure, err)
	}
	return nil
}

// SupportsAlgo reports whether every operation of algo is available.
func (Backend) SupportsAlgo(algo crypto.PublicKeyAlgorithm) bool {
	switch algo {
	case crypto.X25519, crypto.Ed25519, crypto.ECDH, crypto.ECDSA,
		crypto.DSA, crypto.MLKEM768X25519:
		return true
	}
	return false
}

// SupportsCurve reports whether the curve is available.
func (Backend) SupportsCurve(curve crypto.Curve) bool {
	switch curve {
	case crypto.NISTP256, crypto.NISTP384, crypto.NISTP521,
		crypto.Curve25519, crypto.CurveEd25519:
		return true
	}
	return false
}

func randomSecret(n int) (*crypto.SecretBuffer, error) {
	s := crypto.NewSecretBuffer(n)
	if err := (Backend{}).Random(s.Bytes()); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func checkSize(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", crypto.ErrInvalidArgument, what, got, want)
	}
	return nil
}

func unsupportedCurve(op string, curve crypto.Curve) error {
	return fmt.Errorf("%w: %s on %v", crypto.ErrUnsupported, op, curve)
}

func unsupportedSet(op string, ps crypto.ParameterSet) error {
	return fmt.Errorf("%w: %s with %v", crypto.ErrUnsupported, op, ps)
}
