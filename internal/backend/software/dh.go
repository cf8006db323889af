package software

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/cloudflare/circl/dh/x25519"
	"github.com/cloudflare/circl/dh/x448"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// DHGenerate creates a key-agreement key pair.
func (b Backend) DHGenerate(curve crypto.Curve) (*crypto.KeyPair, error) {
	switch curve {
	case crypto.Curve25519:
		secret, err := randomSecret(x25519.Size)
		if err != nil {
			return nil, err
		}
		if err := crypto.ClampX25519(secret); err != nil {
			return nil, err
		}
		public, err := b.DHDerivePublic(curve, secret)
		if err != nil {
			secret.Destroy()
			return nil, err
		}
		return &crypto.KeyPair{Secret: secret, Public: public}, nil
	case crypto.Curve448:
		secret, err := randomSecret(x448.Size)
		if err != nil {
			return nil, err
		}
		public, err := b.DHDerivePublic(curve, secret)
		if err != nil {
			secret.Destroy()
			return nil, err
		}
		return &crypto.KeyPair{Secret: secret, Public: public}, nil
	}
	if !curve.IsWeierstrass() {
		return nil, unsupportedCurve("key agreement", curve)
	}
	return generateWeierstrass(curve)
}

// DHDerivePublic recomputes the public key for secret.
func (Backend) DHDerivePublic(curve crypto.Curve, secret *crypto.SecretBuffer) ([]byte, error) {
	switch curve {
	case crypto.Curve25519:
		if err := checkSize("X25519 secret", secret.Len(), x25519.Size); err != nil {
			return nil, err
		}
		var sk, pk x25519.Key
		copy(sk[:], secret.Bytes())
		x25519.KeyGen(&pk, &sk)
		crypto.Zeroize(sk[:])
		return pk[:], nil
	case crypto.Curve448:
		if err := checkSize("X448 secret", secret.Len(), x448.Size); err != nil {
			return nil, err
		}
		var sk, pk x448.Key
		copy(sk[:], secret.Bytes())
		x448.KeyGen(&pk, &sk)
		crypto.Zeroize(sk[:])
		return pk[:], nil
	}
	if !curve.IsWeierstrass() {
		return nil, unsupportedCurve("key agreement", curve)
	}
	return deriveWeierstrass(curve, secret)
}

// DHShared computes the raw shared secret between secret and public. For
// Weierstrass curves this is the x coordinate of the shared point.
func (Backend) DHShared(curve crypto.Curve, secret *crypto.SecretBuffer, public []byte) (*crypto.SecretBuffer, error) {
	switch curve {
	case crypto.Curve25519:
		if err := checkSize("X25519 secret", secret.Len(), x25519.Size); err != nil {
			return nil, err
		}
		if err := checkSize("X25519 public key", len(public), x25519.Size); err != nil {
			return nil, err
		}
		var sk, pk, shared x25519.Key
		copy(sk[:], secret.Bytes())
		copy(pk[:], public)
		ok := x25519.Shared(&shared, &sk, &pk)
		crypto.Zeroize(sk[:])
		if !ok {
			return nil, fmt.Errorf("%w: X25519 low-order point", crypto.ErrCryptographicFailure)
		}
		return crypto.SecretBufferCopy(shared[:]), nil
	case crypto.Curve448:
		if err := checkSize("X448 secret", secret.Len(), x448.Size); err != nil {
			return nil, err
		}
		if err := checkSize("X448 public key", len(public), x448.Size); err != nil {
			return nil, err
		}
		var sk, pk, shared x448.Key
		copy(sk[:], secret.Bytes())
		copy(pk[:], public)
		ok := x448.Shared(&shared, &sk, &pk)
		crypto.Zeroize(sk[:])
		if !ok {
			return nil, fmt.Errorf("%w: X448 low-order point", crypto.ErrCryptographicFailure)
		}
		return crypto.SecretBufferCopy(shared[:]), nil
	}

	if !curve.IsWeierstrass() {
		return nil, unsupportedCurve("key agreement", curve)
	}
	if err := checkSize("secret scalar", secret.Len(), curve.ScalarSize()); err != nil {
		return nil, err
	}

	if c, ok := nistECDH(curve); ok {
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

	if curve == crypto.Secp256k1 {
		pub, err := btcec.ParsePubKey(public)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		priv, _ := btcec.PrivKeyFromBytes(secret.Bytes())
		shared := btcec.GenerateSharedSecret(priv, pub)
		priv.Zero()
		return crypto.SecretBufferFromBytes(shared), nil
	}

	c, _ := brainpoolCurve(curve)
	x, y, err := unmarshalPoint(c, curve.ScalarSize(), public)
	if err != nil {
		return nil, err
	}
	sx, _ := c.ScalarMult(x, y, secret.Bytes())
	shared := crypto.NewSecretBuffer(curve.ScalarSize())
	sx.FillBytes(shared.Bytes())
	return shared, nil
}
