package native

import (
	"crypto/dsa" //nolint:staticcheck // DSA keys remain valid in RFC 4880 messages
	"fmt"
	"math/big"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func dsaSizes(bits int) (dsa.ParameterSizes, bool) {
	switch bits {
	case 1024:
		return dsa.L1024N160, true
	case 2048:
		return dsa.L2048N256, true
	case 3072:
		return dsa.L3072N256, true
	}
	return 0, false
}

// DSAGenerate creates fresh domain parameters and a key of the given size.
// The secret x is padded to the length of q.
func (Backend) DSAGenerate(bits int) (*crypto.DSAPublicKey, *crypto.SecretBuffer, error) {
	sizes, ok := dsaSizes(bits)
	if !ok {
		return nil, nil, fmt.Errorf("%w: DSA with %d-bit modulus", crypto.ErrUnsupported, bits)
	}
	var priv dsa.PrivateKey
	if err := dsa.GenerateParameters(&priv.Parameters, reader(), sizes); err != nil {
		return nil, nil, fmt.Errorf("%w: DSA parameters: %v", crypto.ErrCryptographicFailure, err)
	}
	if err := dsa.GenerateKey(&priv, reader()); err != nil {
		return nil, nil, fmt.Errorf("%w: DSA key: %v", crypto.ErrCryptographicFailure, err)
	}
	x := crypto.NewSecretBuffer((priv.Q.BitLen() + 7) / 8)
	priv.X.FillBytes(x.Bytes())
	priv.X.SetInt64(0)
	return &crypto.DSAPublicKey{
		P: priv.P.Bytes(),
		Q: priv.Q.Bytes(),
		G: priv.G.Bytes(),
		Y: priv.Y.Bytes(),
	}, x, nil
}

// DSASign signs digest, truncated to the length of q.
func (Backend) DSASign(public *crypto.DSAPublicKey, x *crypto.SecretBuffer, digest []byte) (r, s []byte, err error) {
	pub, err := dsaPublic(public)
	if err != nil {
		return nil, nil, err
	}
	if x == nil || x.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: missing DSA secret", crypto.ErrInvalidArgument)
	}
	priv := &dsa.PrivateKey{PublicKey: *pub, X: new(big.Int).SetBytes(x.Bytes())}
	defer priv.X.SetInt64(0)
	rr, ss, err := dsa.Sign(reader(), priv, digest)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: DSA sign: %v", crypto.ErrCryptographicFailure, err)
	}
	return rr.Bytes(), ss.Bytes(), nil
}

// DSAVerify checks (r, s) over digest.
func (Backend) DSAVerify(public *crypto.DSAPublicKey, digest, r, s []byte) (bool, error) {
	pub, err := dsaPublic(public)
	if err != nil {
		return false, err
	}
	return dsa.Verify(pub, digest, new(big.Int).SetBytes(r), new(big.Int).SetBytes(s)), nil
}

func dsaPublic(public *crypto.DSAPublicKey) (*dsa.PublicKey, error) {
	if public == nil || len(public.P) == 0 || len(public.Q) == 0 || len(public.G) == 0 || len(public.Y) == 0 {
		return nil, fmt.Errorf("%w: incomplete DSA public key", crypto.ErrInvalidArgument)
	}
	return &dsa.PublicKey{
		Parameters: dsa.Parameters{
			P: new(big.Int).SetBytes(public.P),
			Q: new(big.Int).SetBytes(public.Q),
			G: new(big.Int).SetBytes(public.G),
		},
		Y: new(big.Int).SetBytes(public.Y),
	}, nil
}
