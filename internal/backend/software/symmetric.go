package software

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"

	"github.com/ProtonMail/go-crypto/eax"
	"github.com/ProtonMail/go-crypto/ocb"
	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/blockmode"
)

// SupportsCipher reports whether the block cipher is available.
func (Backend) SupportsCipher(algo crypto.SymmetricAlgorithm) bool {
	switch algo {
	case crypto.TripleDES, crypto.CAST5, crypto.Blowfish,
		crypto.AES128, crypto.AES192, crypto.AES256, crypto.Twofish:
		return true
	}
	return false
}

// SupportsAEAD reports whether mode is available for algo. Every AEAD mode
// needs a 128-bit block cipher.
func (b Backend) SupportsAEAD(algo crypto.SymmetricAlgorithm, mode crypto.AEADMode) bool {
	if !b.SupportsCipher(algo) || algo.BlockSize() != 16 {
		return false
	}
	switch mode {
	case crypto.AEADModeEAX, crypto.AEADModeOCB, crypto.AEADModeGCM:
		return true
	}
	return false
}

// Encryptor returns an encryption context for algo in mode.
func (Backend) Encryptor(algo crypto.SymmetricAlgorithm, mode crypto.BlockCipherMode, key *crypto.SecretBuffer, iv []byte) (crypto.Encryptor, error) {
	block, err := newBlock(algo, key)
	if err != nil {
		return nil, err
	}
	return blockmode.NewEncryptor(block, mode, iv)
}

// Decryptor returns a decryption context for algo in mode.
func (Backend) Decryptor(algo crypto.SymmetricAlgorithm, mode crypto.BlockCipherMode, key *crypto.SecretBuffer, iv []byte) (crypto.Decryptor, error) {
	block, err := newBlock(algo, key)
	if err != nil {
		return nil, err
	}
	return blockmode.NewDecryptor(block, mode, iv)
}

// AEAD returns an AEAD keyed with key. Nonce and tag sizes follow RFC 9580.
func (b Backend) AEAD(algo crypto.SymmetricAlgorithm, mode crypto.AEADMode, key *crypto.SecretBuffer) (cipher.AEAD, error) {
	if !b.SupportsAEAD(algo, mode) {
		return nil, fmt.Errorf("%w: %v with %v", crypto.ErrUnsupported, mode, algo)
	}
	block, err := newBlock(algo, key)
	if err != nil {
		return nil, err
	}

	var aead cipher.AEAD
	switch mode {
	case crypto.AEADModeEAX:
		aead, err = eax.NewEAXWithNonceAndTagSize(block, mode.NonceSize(), mode.TagSize())
	case crypto.AEADModeOCB:
		aead, err = ocb.NewOCBWithNonceAndTagSize(block, mode.NonceSize(), mode.TagSize())
	default:
		aead, err = cipher.NewGCM(block)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create %v: %v", crypto.ErrCryptographicFailure, mode, err)
	}
	return aead, nil
}

func newBlock(algo crypto.SymmetricAlgorithm, key *crypto.SecretBuffer) (cipher.Block, error) {
	if key == nil || key.Destroyed() {
		return nil, fmt.Errorf("%w: missing key", crypto.ErrInvalidArgument)
	}
	if algo.KeySize() == 0 {
		return nil, fmt.Errorf("%w: cipher %v", crypto.ErrUnsupported, algo)
	}
	if err := checkSize(algo.String()+" key", key.Len(), algo.KeySize()); err != nil {
		return nil, err
	}

	var (
		block cipher.Block
		err   error
	)
	k := key.Bytes()
	switch algo {
	case crypto.AES128, crypto.AES192, crypto.AES256:
		block, err = aes.NewCipher(k)
	case crypto.TripleDES:
		block, err = des.NewTripleDESCipher(k)
	case crypto.CAST5:
		block, err = cast5.NewCipher(k)
	case crypto.Blowfish:
		block, err = blowfish.NewCipher(k)
	case crypto.Twofish:
		block, err = twofish.NewCipher(k)
	default:
		return nil, fmt.Errorf("%w: cipher %v", crypto.ErrUnsupported, algo)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	return block, nil
}
