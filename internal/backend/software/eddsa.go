package software

import (
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/cloudflare/circl/sign/ed448"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// EdDSAGenerate creates an Ed25519 or Ed448 key pair. The secret is the seed.
func (b Backend) EdDSAGenerate(curve crypto.Curve) (*crypto.KeyPair, error) {
	var seedSize int
	switch curve {
	case crypto.CurveEd25519:
		seedSize = ed25519.SeedSize
	case crypto.CurveEd448:
		seedSize = ed448.SeedSize
	default:
		return nil, unsupportedCurve("EdDSA", curve)
	}
	secret, err := randomSecret(seedSize)
	if err != nil {
		return nil, err
	}
	public, err := b.EdDSADerivePublic(curve, secret)
	if err != nil {
		secret.Destroy()
		return nil, err
	}
	return &crypto.KeyPair{Secret: secret, Public: public}, nil
}

// EdDSADerivePublic expands the seed and returns the public key.
func (Backend) EdDSADerivePublic(curve crypto.Curve, secret *crypto.SecretBuffer) ([]byte, error) {
	switch curve {
	case crypto.CurveEd25519:
		if err := checkSize("Ed25519 seed", secret.Len(), ed25519.SeedSize); err != nil {
			return nil, err
		}
		priv := ed25519.NewKeyFromSeed(secret.Bytes())
		defer crypto.Zeroize(priv)
		return []byte(priv.Public().(ed25519.PublicKey)), nil
	case crypto.CurveEd448:
		if err := checkSize("Ed448 seed", secret.Len(), ed448.SeedSize); err != nil {
			return nil, err
		}
		priv := ed448.NewKeyFromSeed(secret.Bytes())
		defer crypto.Zeroize(priv)
		return []byte(priv.Public().(ed448.PublicKey)), nil
	}
	return nil, unsupportedCurve("EdDSA", curve)
}

// EdDSASign signs digest with the expanded seed.
func (Backend) EdDSASign(curve crypto.Curve, secret *crypto.SecretBuffer, digest []byte) ([]byte, error) {
	switch curve {
	case crypto.CurveEd25519:
		if err := checkSize("Ed25519 seed", secret.Len(), ed25519.SeedSize); err != nil {
			return nil, err
		}
		priv := ed25519.NewKeyFromSeed(secret.Bytes())
		defer crypto.Zeroize(priv)
		return ed25519.Sign(priv, digest), nil
	case crypto.CurveEd448:
		if err := checkSize("Ed448 seed", secret.Len(), ed448.SeedSize); err != nil {
			return nil, err
		}
		priv := ed448.NewKeyFromSeed(secret.Bytes())
		defer crypto.Zeroize(priv)
		return ed448.Sign(priv, digest, ""), nil
	}
	return nil, unsupportedCurve("EdDSA", curve)
}

// EdDSAVerify checks sig over digest.
func (Backend) EdDSAVerify(curve crypto.Curve, public, digest, sig []byte) (bool, error) {
	switch curve {
	case crypto.CurveEd25519:
		if err := checkSize("Ed25519 public key", len(public), ed25519.PublicKeySize); err != nil {
			return false, err
		}
		if err := checkSize("Ed25519 signature", len(sig), ed25519.SignatureSize); err != nil {
			return false, err
		}
		return ed25519.Verify(ed25519.PublicKey(public), digest, sig), nil
	case crypto.CurveEd448:
		if err := checkSize("Ed448 public key", len(public), ed448.PublicKeySize); err != nil {
			return false, err
		}
		if err := checkSize("Ed448 signature", len(sig), ed448.SignatureSize); err != nil {
			return false, err
		}
		return ed448.Verify(ed448.PublicKey(public), digest, sig, ""), nil
	}
	return false, unsupportedCurve("EdDSA", curve)
}
