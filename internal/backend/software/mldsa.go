package software

import (
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func mldsaScheme(ps crypto.ParameterSet) (sign.Scheme, bool) {
	switch ps {
	case crypto.MLDSA65:
		return mldsa65.Scheme(), true
	case crypto.MLDSA87:
		return mldsa87.Scheme(), true
	}
	return nil, false
}

// MLDSAGenerate creates an ML-DSA key pair. The secret is the 32-byte seed.
func (b Backend) MLDSAGenerate(ps crypto.ParameterSet) (*crypto.KeyPair, error) {
	if _, ok := mldsaScheme(ps); !ok {
		return nil, unsupportedSet("ML-DSA key generation", ps)
	}
	secret, err := randomSecret(crypto.MLDSASeedSize)
	if err != nil {
		return nil, err
	}
	public, err := b.MLDSADerivePublic(ps, secret)
	if err != nil {
		secret.Destroy()
		return nil, err
	}
	return &crypto.KeyPair{Secret: secret, Public: public}, nil
}

// MLDSADerivePublic expands the seed and returns the packed public key.
func (Backend) MLDSADerivePublic(ps crypto.ParameterSet, secret *crypto.SecretBuffer) ([]byte, error) {
	scheme, ok := mldsaScheme(ps)
	if !ok {
		return nil, unsupportedSet("ML-DSA public key derivation", ps)
	}
	if err := checkSize("ML-DSA seed", secret.Len(), crypto.MLDSASeedSize); err != nil {
		return nil, err
	}
	pk, _ := scheme.DeriveKey(secret.Bytes())
	public, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	return public, nil
}

// MLDSASign produces a hedged ML-DSA signature with an empty context.
func (Backend) MLDSASign(ps crypto.ParameterSet, secret *crypto.SecretBuffer, digest []byte) ([]byte, error) {
	scheme, ok := mldsaScheme(ps)
	if !ok {
		return nil, unsupportedSet("ML-DSA sign", ps)
	}
	if err := checkSize("ML-DSA seed", secret.Len(), crypto.MLDSASeedSize); err != nil {
		return nil, err
	}
	_, sk := scheme.DeriveKey(secret.Bytes())
	sig := make([]byte, scheme.SignatureSize())

	var err error
	switch priv := sk.(type) {
	case *mldsa65.PrivateKey:
		err = mldsa65.SignTo(priv, digest, nil, true, sig)
	case *mldsa87.PrivateKey:
		err = mldsa87.SignTo(priv, digest, nil, true, sig)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ML-DSA sign: %v", crypto.ErrCryptographicFailure, err)
	}
	return sig, nil
}

// MLDSAVerify checks sig over digest.
func (Backend) MLDSAVerify(ps crypto.ParameterSet, public, digest, sig []byte) (bool, error) {
	scheme, ok := mldsaScheme(ps)
	if !ok {
		return false, unsupportedSet("ML-DSA verify", ps)
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(public)
	if err != nil {
		return false, fmt.Errorf("%w: ML-DSA public key: %v", crypto.ErrInvalidArgument, err)
	}
	if len(sig) != scheme.SignatureSize() {
		return false, nil
	}
	return scheme.Verify(pk, digest, sig, nil), nil
}
