package native

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func ecdhCurve(curve crypto.Curve) (ecdh.Curve, bool) {
	switch curve {
	case crypto.Curve25519:
		return ecdh.X25519(), true
	case crypto.NISTP256:
		return ecdh.P256(), true
	case crypto.NISTP384:
		return ecdh.P384(), true
	case crypto.NISTP521:
		return ecdh.P521(), true
	}
	return nil, false
}

func ellipticCurve(curve crypto.Curve) (elliptic.Curve, bool) {
	switch curve {
	case crypto.NISTP256:
		return elliptic.P256(), true
	case crypto.NISTP384:
		return elliptic.P384(), true
	case crypto.NISTP521:
		return elliptic.P521(), true
	}
	return nil, false
}

// DHGenerate creates a key-agreement key pair. X25519 secrets are stored
// clamped.
func (Backend) DHGenerate(curve crypto.Curve) (*crypto.KeyPair, error) {
	c, ok := ecdhCurve(curve)
	if !ok {
		return nil, unsupportedCurve("key agreement", curve)
	}
	if curve == crypto.Curve25519 {
		secret, err := randomSecret(crypto.X25519KeySize)
		if err != nil {
			return nil, err
		}
		if err := crypto.ClampX25519(secret); err != nil {
			return nil, err
		}
		priv, err := c.NewPrivateKey(secret.Bytes())
		if err != nil {
			secret.Destroy()
			return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
		}
		return &crypto.KeyPair{Secret: secret, Public: priv.PublicKey().Bytes()}, nil
	}

	priv, err := c.GenerateKey(reader())
	if err != nil {
		return nil, fmt.Errorf("%w: generate %v key: %v", crypto.ErrCryptographicFailure, curve, err)
	}
	return &crypto.KeyPair{
		Secret: crypto.SecretBufferFromBytes(priv.Bytes()),
		Public: priv.PublicKey().Bytes(),
	}, nil
}

// DHDerivePublic recomputes the public key for secret.
func (Backend) DHDerivePublic(curve crypto.Curve, secret *crypto.SecretBuffer) ([]byte, error) {
	c, ok := ecdhCurve(curve)
	if !ok {
		return nil, unsupportedCurve("key agreement", curve)
	}
	if err := checkSize("secret", secret.Len(), curve.ScalarSize()); err != nil {
		return nil, err
	}
	priv, err := c.NewPrivateKey(secret.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	return priv.PublicKey().Bytes(), nil
}

// DHShared computes the raw shared secret between secret and public.
func (Backend) DHShared(curve crypto.Curve, secret *crypto.SecretBuffer, public []byte) (*crypto.SecretBuffer, error) {
	c, ok := ecdhCurve(curve)
	if !ok {
		return nil, unsupportedCurve("key agreement", curve)
	}
	if err := checkSize("secret", secret.Len(), curve.ScalarSize()); err != nil {
		return nil, err
	}
	if err := checkSize("public key", len(public), curve.PointSize()); err != nil {
		return nil, err
	}
	priv, err := c.NewPrivateKey(secret.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	pub, err := c.NewPublicKey(public)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	shared, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	return crypto.SecretBufferFromBytes(shared), nil
}

// EdDSAGenerate creates an Ed25519 key pair. The secret is the seed.
func (b Backend) EdDSAGenerate(curve crypto.Curve) (*crypto.KeyPair, error) {
	if curve != crypto.CurveEd25519 {
		return nil, unsupportedCurve("EdDSA", curve)
	}
	secret, err := randomSecret(ed25519.SeedSize)
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
	if curve != crypto.CurveEd25519 {
		return nil, unsupportedCurve("EdDSA", curve)
	}
	if err := checkSize("Ed25519 seed", secret.Len(), ed25519.SeedSize); err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(secret.Bytes())
	defer crypto.Zeroize(priv)
	return append([]byte(nil), priv.Public().(ed25519.PublicKey)...), nil
}

// EdDSASign signs digest.
func (Backend) EdDSASign(curve crypto.Curve, secret *crypto.SecretBuffer, digest []byte) ([]byte, error) {
	if curve != crypto.CurveEd25519 {
		return nil, unsupportedCurve("EdDSA", curve)
	}
	if err := checkSize("Ed25519 seed", secret.Len(), ed25519.SeedSize); err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(secret.Bytes())
	defer crypto.Zeroize(priv)
	return ed25519.Sign(priv, digest), nil
}

// EdDSAVerify checks sig over digest.
func (Backend) EdDSAVerify(curve crypto.Curve, public, digest, sig []byte) (bool, error) {
	if curve != crypto.CurveEd25519 {
		return false, unsupportedCurve("EdDSA", curve)
	}
	if err := checkSize("Ed25519 public key", len(public), ed25519.PublicKeySize); err != nil {
		return false, err
	}
	if err := checkSize("Ed25519 signature", len(sig), ed25519.SignatureSize); err != nil {
		return false, err
	}
	return ed25519.Verify(ed25519.PublicKey(public), digest, sig), nil
}

// ECDSAGenerate creates an ECDSA key pair on a NIST curve.
func (Backend) ECDSAGenerate(curve crypto.Curve) (*crypto.KeyPair, error) {
	c, ok := ellipticCurve(curve)
	if !ok {
		return nil, unsupportedCurve("ECDSA", curve)
	}
	priv, err := ecdsa.GenerateKey(c, reader())
	if err != nil {
		return nil, fmt.Errorf("%w: generate %v key: %v", crypto.ErrCryptographicFailure, curve, err)
	}
	secret, err := priv.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	public, err := priv.PublicKey.Bytes()
	if err != nil {
		crypto.Zeroize(secret)
		return nil, fmt.Errorf("%w: %v", crypto.ErrCryptographicFailure, err)
	}
	return &crypto.KeyPair{Secret: crypto.SecretBufferFromBytes(secret), Public: public}, nil
}

// ECDSASign signs digest and returns the big-endian r and s values.
func (Backend) ECDSASign(curve crypto.Curve, secret *crypto.SecretBuffer, digest []byte) (r, s []byte, err error) {
	c, ok := ellipticCurve(curve)
	if !ok {
		return nil, nil, unsupportedCurve("ECDSA", curve)
	}
	if err := checkSize("secret scalar", secret.Len(), curve.ScalarSize()); err != nil {
		return nil, nil, err
	}
	priv, err := ecdsa.ParseRawPrivateKey(c, secret.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	defer priv.D.SetInt64(0)
	rr, ss, err := ecdsa.Sign(reader(), priv, digest)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ECDSA sign: %v", crypto.ErrCryptographicFailure, err)
	}
	return rr.Bytes(), ss.Bytes(), nil
}

// ECDSAVerify checks (r, s) over digest.
func (Backend) ECDSAVerify(curve crypto.Curve, public, digest, r, s []byte) (bool, error) {
	c, ok := ellipticCurve(curve)
	if !ok {
		return false, unsupportedCurve("ECDSA", curve)
	}
	pub, err := ecdsa.ParseUncompressedPublicKey(c, public)
	if err != nil {
		return false, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
	}
	return ecdsa.Verify(pub, digest, new(big.Int).SetBytes(r), new(big.Int).SetBytes(s)), nil
}
