package native

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/blockmode"
)

// SupportsCipher reports whether the block cipher is available.
func (Backend) SupportsCipher(algo crypto.SymmetricAlgorithm) bool {
	switch algo {
	case crypto.TripleDES, crypto.AES128, crypto.AES192, crypto.AES256:
		return true
	}
	return false
}

// SupportsAEAD reports whether mode is available for algo. Only AES-GCM is.
func (Backend) SupportsAEAD(algo crypto.SymmetricAlgorithm, mode crypto.AEADMode) bool {
	if mode != crypto.AEADModeGCM {
		return false
	}
	switch algo {
	case crypto.AES128, crypto.AES192, crypto.AES256:
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

// AEAD returns an AES-GCM instance keyed with key.
func (b Backend) AEAD(algo crypto.SymmetricAlgorithm, mode crypto.AEADMode, key *crypto.SecretBuffer) (cipher.AEAD, error) {
	if !b.SupportsAEAD(algo, mode) {
		return nil, fmt.Errorf("%w: %v with %v", crypto.ErrUnsupported, mode, algo)
	}
	block, err := newBlock(algo, key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCM: %v", crypto.ErrCryptographicFailure, err)
	}
	return aead, nil
}

func newBlock(algo crypto.SymmetricAlgorithm, key *crypto.SecretBuffer) (cipher.Block, error) {
	if key == nil || key.Destroyed() {
		return nil, fmt.Errorf("%w: missing key", crypto.ErrInvalidArgument)
	}
	if !(Backend{}).SupportsCipher(algo) {
		return nil, fmt.Errorf("%w: cipher %v", crypto.ErrUnsupported, algo)
	}
	if err := checkSize(algo.String()+" key", key.Len(), algo.KeySize()); err != nil {
		return nil, err
	}

	var (
		block cipher.Block
		err   error
	)
	if algo == crypto.TripleDES {
		block, err = des.NewTripleDESCipher(key.Bytes())
	} else {
		block, err = aes.NewCipher(key.Bytes())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	return block, nil
}
