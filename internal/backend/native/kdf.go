package native

import (
	"crypto/hkdf"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

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
	key, err := hkdf.Key(h, ikm.Bytes(), salt, string(info), okm.Len())
	if err != nil {
		return fmt.Errorf("%w: failed to derive key: %v", crypto.ErrInvalidArgument, err)
	}
	copy(okm.Bytes(), key)
	crypto.Zeroize(key)
	return nil
}
