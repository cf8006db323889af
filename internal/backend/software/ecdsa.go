package software

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// ECDSAGenerate creates an ECDSA key pair on a Weierstrass curve.
func (Backend) ECDSAGenerate(curve crypto.Curve) (*crypto.KeyPair, error) {
	if !curve.IsWeierstrass() {
		return nil, unsupportedCurve("ECDSA", curve)
	}
	return generateWeierstrass(curve)
}

// ECDSASign signs digest and returns the big-endian r and s values.
func (Backend) ECDSASign(curve crypto.Curve, secret *crypto.SecretBuffer, digest []byte) (r, s []byte, err error) {
	if !curve.IsWeierstrass() {
		return nil, nil, unsupportedCurve("ECDSA", curve)
	}
	if err := checkSize("secret scalar", secret.Len(), curve.ScalarSize()); err != nil {
		return nil, nil, err
	}

	if curve == crypto.Secp256k1 {
		priv, _ := btcec.PrivKeyFromBytes(secret.Bytes())
		defer priv.Zero()
		// Compact form: recovery byte, then 32-byte R and S.
		compact := btcecdsa.SignCompact(priv, truncateDigest(digest), false)
		return trimLeadingZeros(compact[1:33]), trimLeadingZeros(compact[33:65]), nil
	}

	priv, err := ecdsaPrivateKey(curve, secret)
	if err != nil {
		return nil, nil, err
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
	if !curve.IsWeierstrass() {
		return false, unsupportedCurve("ECDSA", curve)
	}

	if curve == crypto.Secp256k1 {
		pub, err := btcec.ParsePubKey(public)
		if err != nil {
			return false, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		if len(r) > 32 || len(s) > 32 {
			return false, nil
		}
		var rs, ss btcec.ModNScalar
		if rs.SetByteSlice(r) || ss.SetByteSlice(s) {
			return false, nil
		}
		return btcecdsa.NewSignature(&rs, &ss).Verify(truncateDigest(digest), pub), nil
	}

	pub, err := ecdsaPublicKey(curve, public)
	if err != nil {
		return false, err
	}
	return ecdsa.Verify(pub, digest, new(big.Int).SetBytes(r), new(big.Int).SetBytes(s)), nil
}

func ecdsaPrivateKey(curve crypto.Curve, secret *crypto.SecretBuffer) (*ecdsa.PrivateKey, error) {
	if c, ok := nistElliptic(curve); ok {
		priv, err := ecdsa.ParseRawPrivateKey(c, secret.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		return priv, nil
	}
	c, _ := brainpoolCurve(curve)
	x, y := c.ScalarBaseMult(secret.Bytes())
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: c, X: x, Y: y},
		D:         new(big.Int).SetBytes(secret.Bytes()),
	}, nil
}

func ecdsaPublicKey(curve crypto.Curve, public []byte) (*ecdsa.PublicKey, error) {
	if c, ok := nistElliptic(curve); ok {
		pub, err := ecdsa.ParseUncompressedPublicKey(c, public)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidArgument, err)
		}
		return pub, nil
	}
	c, _ := brainpoolCurve(curve)
	x, y, err := unmarshalPoint(c, curve.ScalarSize(), public)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{Curve: c, X: x, Y: y}, nil
}

// truncateDigest keeps the leftmost 256 bits, as ECDSA does for a 256-bit
// group order.
func truncateDigest(digest []byte) []byte {
	if len(digest) > 32 {
		return digest[:32]
	}
	return digest
}

func trimLeadingZeros(b []byte) []byte {
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
