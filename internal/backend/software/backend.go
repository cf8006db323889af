package software

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// Name identifies this backend.
const Name = "software"

// randReader is the random source used for key generation and randomized
// operations. It defaults to nil (which uses crypto/rand) but can be
// overridden for testing.
var randReader io.Reader

func reader() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// Backend is the software backend. The zero value is ready to use and safe
// for concurrent use.
type Backend struct{}

var _ crypto.Provider = Backend{}

// Name returns "software".
func (Backend) Name() string { return Name }

// Random fills buf from the backend's random source.
func (Backend) Random(buf []byte) error {
	if _, err := io.ReadFull(reader(), buf); err != nil {
		return fmt.Errorf("%w: read random: %v", crypto.ErrCryptographicFailure, err)
	}
	return nil
}

// SupportsAlgo reports whether every operation of algo is available.
func (b Backend) SupportsAlgo(algo crypto.PublicKeyAlgorithm) bool {
	switch algo {
	case crypto.X25519, crypto.X448, crypto.Ed25519, crypto.Ed448,
		crypto.ECDH, crypto.ECDSA, crypto.ElGamal,
		crypto.MLDSA65Ed25519, crypto.MLDSA87Ed448,
		crypto.MLKEM768X25519, crypto.MLKEM1024X448,
		crypto.SLHDSA128s, crypto.SLHDSA128f, crypto.SLHDSA256s:
		return true
	}
	return false
}

// SupportsCurve reports whether the curve is available.
func (Backend) SupportsCurve(curve crypto.Curve) bool {
	switch curve {
	case crypto.NISTP256, crypto.NISTP384, crypto.NISTP521,
		crypto.BrainpoolP256, crypto.BrainpoolP384, crypto.BrainpoolP512,
		crypto.Secp256k1, crypto.Curve25519, crypto.Curve448,
		crypto.CurveEd25519, crypto.CurveEd448:
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
