package software

import (
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func mlkemScheme(ps crypto.ParameterSet) (kem.Scheme, bool) {
	switch ps {
	case crypto.MLKEM768:
		return mlkem768.Scheme(), true
	case crypto.MLKEM1024:
		return mlkem1024.Scheme(), true
	}
	return nil, false
}

// MLKEMGenerate creates an ML-KEM key pair. The secret is the 64-byte seed
// (d || z), which is the only form stored.
func (b Backend) MLKEMGenerate(ps crypto.ParameterSet) (*crypto.KeyPair, error) {
	if _, ok := mlkemScheme(ps); !ok {
		return nil, unsupportedSet("ML-KEM key generation", ps)
	}
	secret, err := randomSecret(crypto.MLKEMSeedSize)
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
	scheme, ok := mlkemScheme(ps)
	if !ok {
		return nil, unsupportedSet("ML-KEM public key derivation", ps)
	}
	if err := checkSize("ML-KEM seed", secret.Len(), crypto.MLKEMSeedSize); err != nil {
		return nil, err
	}
	pk, _ := scheme.DeriveKeyPair(secret.Bytes())
	public, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	return public, nil
}

// MLKEMEncapsulate generates a fresh shared key for public.
func (b Backend) MLKEMEncapsulate(ps crypto.ParameterSet, public []byte) ([]byte, *crypto.SecretBuffer, error) {
	scheme, ok := mlkemScheme(ps)
	if !ok {
		return nil, nil, unsupportedSet("ML-KEM encapsulation", ps)
	}
	if err := checkSize("ML-KEM public key", len(public), scheme.PublicKeySize()); err != nil {
		return nil, nil, err
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(public)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ML-KEM public key: %v", crypto.ErrInvalidArgument, err)
	}

	seed, err := randomSecret(scheme.EncapsulationSeedSize())
	if err != nil {
		return nil, nil, err
	}
	defer seed.Destroy()

	ct, ss, err := scheme.EncapsulateDeterministically(pk, seed.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ML-KEM encapsulate: %v", crypto.ErrCryptographicFailure, err)
	}
	return ct, crypto.SecretBufferFromBytes(ss), nil
}

// MLKEMDecapsulate recovers the shared key from ciphertext.
func (Backend) MLKEMDecapsulate(ps crypto.ParameterSet, secret *crypto.SecretBuffer, ciphertext []byte) (*crypto.SecretBuffer, error) {
	scheme, ok := mlkemScheme(ps)
	if !ok {
		return nil, unsupportedSet("ML-KEM decapsulation", ps)
	}
	if err := checkSize("ML-KEM seed", secret.Len(), crypto.MLKEMSeedSize); err != nil {
		return nil, err
	}
	if err := checkSize("ML-KEM ciphertext", len(ciphertext), scheme.CiphertextSize()); err != nil {
		return nil, err
	}
	_, sk := scheme.DeriveKeyPair(secret.Bytes())
	ss, err := scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ML-KEM decapsulate: %v", crypto.ErrCryptographicFailure, err)
	}
	return crypto.SecretBufferFromBytes(ss), nil
}
