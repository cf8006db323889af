package native

import (
	"crypto/mlkem"
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// MLKEMGenerate creates an ML-KEM key pair from a fresh 64-byte seed.
func (b Backend) MLKEMGenerate(ps crypto.ParameterSet) (*crypto.KeyPair, error) {
	if ps != crypto.MLKEM768 && ps != crypto.MLKEM1024 {
		return nil, unsupportedSet("ML-KEM key generation", ps)
	}
	secret, err := randomSecret(mlkem.SeedSize)
	if err != nil {
		return nil, err
	}
	public, err := b.MLKEMDerivePublic(ps, secret)
	if err != nil {
		secret.Destroy()
		return nil, err
	}
	return &crypto.KeyPair{Secret: secret, Public: public}, nil
}

// MLKEMDerivePublic expands the seed and returns the encapsulation key.
func (Backend) MLKEMDerivePublic(ps crypto.ParameterSet, secret *crypto.SecretBuffer) ([]byte, error) {
	if err := checkSize("ML-KEM seed", secret.Len(), mlkem.SeedSize); err != nil {
		return nil, err
	}
	switch ps {
	case crypto.MLKEM768:
		dk, err := mlkem.NewDecapsulationKey768(secret.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		return dk.EncapsulationKey().Bytes(), nil
	case crypto.MLKEM1024:
		dk, err := mlkem.NewDecapsulationKey1024(secret.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		return dk.EncapsulationKey().Bytes(), nil
	}
	return nil, unsupportedSet("ML-KEM public key derivation", ps)
}

// MLKEMEncapsulate generates a fresh shared key for public.
func (Backend) MLKEMEncapsulate(ps crypto.ParameterSet, public []byte) ([]byte, *crypto.SecretBuffer, error) {
	switch ps {
	case crypto.MLKEM768:
		ek, err := mlkem.NewEncapsulationKey768(public)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ML-KEM public key: %v", crypto.ErrInvalidArgument, err)
		}
		shared, ct := ek.Encapsulate()
		return ct, crypto.SecretBufferFromBytes(shared), nil
	case crypto.MLKEM1024:
		ek, err := mlkem.NewEncapsulationKey1024(public)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ML-KEM public key: %v", crypto.ErrInvalidArgument, err)
		}
		shared, ct := ek.Encapsulate()
		return ct, crypto.SecretBufferFromBytes(shared), nil
	}
	return nil, nil, unsupportedSet("ML-KEM encapsulation", ps)
}

// MLKEMDecapsulate recovers the shared key from ciphertext.
func (Backend) MLKEMDecapsulate(ps crypto.ParameterSet, secret *crypto.SecretBuffer, ciphertext []byte) (*crypto.SecretBuffer, error) {
	if err := checkSize("ML-KEM seed", secret.Len(), mlkem.SeedSize); err != nil {
		return nil, err
	}
	var (
		shared []byte
		err    error
	)
	switch ps {
	case crypto.MLKEM768:
		if err := checkSize("ML-KEM ciphertext", len(ciphertext), mlkem.CiphertextSize768); err != nil {
			return nil, err
		}
		dk, derr := mlkem.NewDecapsulationKey768(secret.Bytes())
		if derr != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, derr)
		}
		shared, err = dk.Decapsulate(ciphertext)
	case crypto.MLKEM1024:
		if err := checkSize("ML-KEM ciphertext", len(ciphertext), mlkem.CiphertextSize1024); err != nil {
			return nil, err
		}
		dk, derr := mlkem.NewDecapsulationKey1024(secret.Bytes())
		if derr != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, derr)
		}
		shared, err = dk.Decapsulate(ciphertext)
	default:
		return nil, unsupportedSet("ML-KEM decapsulation", ps)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ML-KEM decapsulate: %v", crypto.ErrCryptographicFailure, err)
	}
	return crypto.SecretBufferFromBytes(shared), nil
}
