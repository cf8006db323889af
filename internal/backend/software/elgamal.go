package software

import (
	"fmt"
	"math/big"

	"github.com/ProtonMail/go-crypto/openpgp/elgamal"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// modp2048 is the 2048-bit MODP group from RFC 3526, generator 2.
var modp2048, _ = new(big.Int).SetString(
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1"+
		"29024E088A67CC74020BBEA63B139B22514A08798E3404DD"+
		"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245"+
		"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED"+
		"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D"+
		"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F"+
		"83655D23DCA3AD961C62F356208552BB9ED529077096966D"+
		"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B"+
		"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9"+
		"DE2BCBF6955817183995497CEA956AE515D2261898FA0510"+
		"15728E5A8AACAA68FFFFFFFFFFFFFFFF", 16)

// ElGamalGenerate creates a key in the fixed 2048-bit MODP group. No other
// size is available.
func (Backend) ElGamalGenerate(bits int) (*crypto.ElGamalPublicKey, *crypto.SecretBuffer, error) {
	if bits != 2048 {
		return nil, nil, fmt.Errorf("%w: ElGamal with %d-bit group", crypto.ErrUnsupported, bits)
	}
	p := modp2048
	g := big.NewInt(2)
	limit := new(big.Int).Sub(p, big.NewInt(3))
	for {
		secret, err := randomSecret(len(p.Bytes()))
		if err != nil {
			return nil, nil, err
		}
		x := new(big.Int).SetBytes(secret.Bytes())
		// x in [2, p-2]
		if x.Cmp(big.NewInt(2)) < 0 || x.Cmp(limit) > 0 {
			secret.Destroy()
			continue
		}
		y := new(big.Int).Exp(g, x, p)
		x.SetInt64(0)
		return &crypto.ElGamalPublicKey{P: p.Bytes(), G: g.Bytes(), Y: y.Bytes()}, secret, nil
	}
}

// ElGamalEncrypt encrypts msg with PKCS#1 v1.5 padding.
func (Backend) ElGamalEncrypt(public *crypto.ElGamalPublicKey, msg []byte) (c1, c2 []byte, err error) {
	pub, err := elgamalPublic(public)
	if err != nil {
		return nil, nil, err
	}
	a, b, err := elgamal.Encrypt(reader(), pub, msg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ElGamal encrypt: %v", crypto.ErrInvalidArgument, err)
	}
	return a.Bytes(), b.Bytes(), nil
}

// ElGamalDecrypt recovers the padded message.
func (Backend) ElGamalDecrypt(public *crypto.ElGamalPublicKey, x *crypto.SecretBuffer, c1, c2 []byte) (*crypto.SecretBuffer, error) {
	pub, err := elgamalPublic(public)
	if err != nil {
		return nil, err
	}
	if x == nil || x.Len() == 0 {
		return nil, fmt.Errorf("%w: missing ElGamal secret", crypto.ErrInvalidArgument)
	}
	priv := &elgamal.PrivateKey{PublicKey: *pub, X: new(big.Int).SetBytes(x.Bytes())}
	defer priv.X.SetInt64(0)
	msg, err := elgamal.Decrypt(priv, new(big.Int).SetBytes(c1), new(big.Int).SetBytes(c2))
	if err != nil {
		return nil, fmt.Errorf("%w: ElGamal decrypt: %v", crypto.ErrCryptographicFailure, err)
	}
	return crypto.SecretBufferFromBytes(msg), nil
}

func elgamalPublic(public *crypto.ElGamalPublicKey) (*elgamal.PublicKey, error) {
	if public == nil || len(public.P) == 0 || len(public.G) == 0 || len(public.Y) == 0 {
		return nil, fmt.Errorf("%w: incomplete ElGamal public key", crypto.ErrInvalidArgument)
	}
	return &elgamal.PublicKey{
		P: new(big.Int).SetBytes(public.P),
		G: new(big.Int).SetBytes(public.G),
		Y: new(big.Int).SetBytes(public.Y),
	}, nil
}
