package software

import (
	"fmt"

	"github.com/cloudflare/circl/sign/slhdsa"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func slhdsaID(ps crypto.ParameterSet) (slhdsa.ID, bool) {
	switch ps {
	case crypto.SLHDSAShake128s:
		return slhdsa.SHAKE_128s, true
	case crypto.SLHDSAShake128f:
		return slhdsa.SHAKE_128f, true
	case crypto.SLHDSAShake256s:
		return slhdsa.SHAKE_256s, true
	}
	return 0, false
}

// SLHDSAGenerate creates an SLH-DSA key pair. The secret is the full FIPS 205
// private key: SK.seed, SK.prf, PK.seed and PK.root.
func (Backend) SLHDSAGenerate(ps crypto.ParameterSet) (*crypto.KeyPair, error) {
	id, ok := slhdsaID(ps)
	if !ok {
		return nil, unsupportedSet("SLH-DSA key generation", ps)
	}
	pub, priv, err := slhdsa.GenerateKey(reader(), id)
	if err != nil {
		return nil, fmt.Errorf("%w: SLH-DSA key generation: %v", crypto.ErrCryptographicFailure, err)
	}
	raw, err := priv.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	public, err := pub.MarshalBinary()
	if err != nil {
		crypto.Zeroize(raw)
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	return &crypto.KeyPair{Secret: crypto.SecretBufferFromBytes(raw), Public: public}, nil
}

// SLHDSASign produces a randomized SLH-DSA signature with an empty context.
func (Backend) SLHDSASign(ps crypto.ParameterSet, secret *crypto.SecretBuffer, digest []byte) ([]byte, error) {
	id, ok := slhdsaID(ps)
	if !ok {
		return nil, unsupportedSet("SLH-DSA sign", ps)
	}
	if err := checkSize("SLH-DSA secret key", secret.Len(), ps.SecretSize()); err != nil {
		return nil, err
	}
	priv := slhdsa.PrivateKey{ID: id}
	if err := priv.UnmarshalBinary(secret.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: SLH-DSA secret key: %v", crypto.ErrInvalidArgument, err)
	}
	sig, err := slhdsa.SignRandomized(&priv, reader(), slhdsa.NewMessage(digest), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: SLH-DSA sign: %v", crypto.ErrCryptographicFailure, err)
	}
	return sig, nil
}

// SLHDSAVerify checks sig over digest.
func (Backend) SLHDSAVerify(ps crypto.ParameterSet, public, digest, sig []byte) (bool, error) {
	id, ok := slhdsaID(ps)
	if !ok {
		return false, unsupportedSet("SLH-DSA verify", ps)
	}
	if err := checkSize("SLH-DSA public key", len(public), ps.PublicKeySize()); err != nil {
		return false, err
	}
	pub := slhdsa.PublicKey{ID: id}
	if err := pub.UnmarshalBinary(public); err != nil {
		return false, fmt.Errorf("%w: SLH-DSA public key: %v", crypto.ErrInvalidArgument, err)
	}
	if len(sig) != ps.OutputSize() {
		return false, nil
	}
	return slhdsa.Verify(&pub, slhdsa.NewMessage(digest), sig, nil), nil
}
