package software

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// HKDFSHA256 fills okm with HKDF-SHA256 output.
func (Backend) HKDFSHA256(ikm *crypto.SecretBuffer, salt, info []byte, okm *crypto.SecretBuffer) error {
	return deriveKey(sha256.New, ikm, salt, info, okm)
}

// HKDFSHA512 fills okm with HKDF-SHA512 output.
func (Backend) HKDFSHA512(ikm *crypto.SecretBuffer, salt, info []byte, okm *crypto.SecretBuffer) error {
	return deriveKey(sha512.New, ikm, salt, info, okm)
}

func deriveKey(h func() hash.Hash, ikm *crypto.SecretBuffer, salt, info []byte, okm *crypto.SecretBuffer) error {
	if ikm == nil || okm == nil || okm.Len() == 0 {
		return fmt.Errorf("%w: HKDF needs input and output buffers", crypto.ErrInvalidArgument)
	}
	if okm.Len() > 255*h().Size() {
		return fmt.Errorf("%w: HKDF output of %d bytes is too long", crypto.ErrInvalidArgument, okm.Len())
	}

	reader := hkdf.New(h, ikm.Bytes(), salt, info)
	if _, err := io.ReadFull(reader, okm.Bytes()); err != nil {
		return fmt.Errorf("%w: failed to derive key: %v", crypto.ErrCryptographicFailure, err)
	}
	return nil
}
