package software

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/ProtonMail/go-crypto/brainpool"
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func nistECDH(curve crypto.Curve) (ecdh.Curve, bool) {
	switch curve {
	case crypto.NISTP256:
		return ecdh.P256(), true
	case crypto.NISTP384:
		return ecdh.P384(), true
	case crypto.NISTP521:
		return ecdh.P521(), true
	}
	return nil, false
}

func nistElliptic(curve crypto.Curve) (elliptic.Curve, bool) {
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

func brainpoolCurve(curve crypto.Curve) (elliptic.Curve, bool) {
	switch curve {
	case crypto.BrainpoolP256:
		return brainpool.P256r1(), true
	case crypto.BrainpoolP384:
		return brainpool.P384r1(), true
	case crypto.BrainpoolP512:
		return brainpool.P512r1(), true
	}
	return nil, false
}

// generateWeierstrass creates a key pair on a NIST, brainpool or secp256k1
// curve. Secrets are fixed-length big-endian scalars, public keys
// uncompressed SEC1 points.
func generateWeierstrass(curve crypto.Curve) (*crypto.KeyPair, error) {
	if c, ok := nistECDH(curve); ok {
		priv, err := c.GenerateKey(reader())
		if err != nil {
			return nil, fmt.Errorf("%w: generate %v key: %v", crypto.ErrCryptographicFailure, curve, err)
		}
		return &crypto.KeyPair{
			Secret: crypto.SecretBufferFromBytes(priv.Bytes()),
			Public: priv.PublicKey().Bytes(),
		}, nil
	}

	if curve == crypto.Secp256k1 {
		return generateSecp256k1()
	}

	c, ok := brainpoolCurve(curve)
	if !ok {
		return nil, unsupportedCurve("key generation", curve)
	}
	n := c.Params().N
	for {
		secret, err := randomSecret(curve.ScalarSize())
		if err != nil {
			return nil, err
		}
		d := new(big.Int).SetBytes(secret.Bytes())
		if d.Sign() == 0 || d.Cmp(n) >= 0 {
			secret.Destroy()
			continue
		}
		x, y := c.ScalarBaseMult(secret.Bytes())
		return &crypto.KeyPair{Secret: secret, Public: marshalPoint(curve.ScalarSize(), x, y)}, nil
	}
}

func generateSecp256k1() (*crypto.KeyPair, error) {
	for {
		secret, err := randomSecret(32)
		if err != nil {
			return nil, err
		}
		var k btcec.ModNScalar
		if overflow := k.SetByteSlice(secret.Bytes()); overflow || k.IsZero() {
			secret.Destroy()
			continue
		}
		k.Zero()
		_, pub := btcec.PrivKeyFromBytes(secret.Bytes())
		return &crypto.KeyPair{Secret: secret, Public: pub.SerializeUncompressed()}, nil
	}
}

// deriveWeierstrass recomputes the public point for a secret scalar.
func deriveWeierstrass(curve crypto.Curve, secret *crypto.SecretBuffer) ([]byte, error) {
	if err := checkSize("secret scalar", secret.Len(), curve.ScalarSize()); err != nil {
		return nil, err
	}
	if c, ok := nistECDH(curve); ok {
		priv, err := c.NewPrivateKey(secret.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		return priv.PublicKey().Bytes(), nil
	}
	if curve == crypto.Secp256k1 {
		_, pub := btcec.PrivKeyFromBytes(secret.Bytes())
		return pub.SerializeUncompressed(), nil
	}
	c, ok := brainpoolCurve(curve)
	if !ok {
		return nil, unsupportedCurve("public key derivation", curve)
	}
	x, y := c.ScalarBaseMult(secret.Bytes())
	return marshalPoint(curve.ScalarSize(), x, y), nil
}

func marshalPoint(byteLen int, x, y *big.Int) []byte {
	out := make([]byte, 1+2*byteLen)
	out[0] = 4
	x.FillBytes(out[1 : 1+byteLen])
	y.FillBytes(out[1+byteLen:])
	return out
}

func unmarshalPoint(c elliptic.Curve, byteLen int, data []byte) (x, y *big.Int, err error) {
	if err := checkSize("public point", len(data), 1+2*byteLen); err != nil {
		return nil, nil, err
	}
	if data[0] != 4 {
		return nil, nil, fmt.Errorf("%w: point is not uncompressed", crypto.ErrInvalidArgument)
	}
	x = new(big.Int).SetBytes(data[1 : 1+byteLen])
	y = new(big.Int).SetBytes(data[1+byteLen:])
	if !c.IsOnCurve(x, y) {
		return nil, nil, fmt.Errorf("%w: point is not on the curve", crypto.ErrInvalidArgument)
	}
	return x, y, nil
}
