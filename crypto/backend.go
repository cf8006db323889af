package crypto

import (
	"crypto/cipher"
	"io"
)

// Backend identifies a backend and supplies randomness.
type Backend interface {
	// Name returns a short identifier such as "software" or "native".
	Name() string

	// Random fills buf with cryptographically secure random bytes.
	Random(buf []byte) error
}

// DSAPublicKey holds DSA domain parameters and the public value, each as a
// big-endian unsigned integer.
type DSAPublicKey struct {
	P, Q, G, Y []byte
}

// ElGamalPublicKey holds ElGamal group parameters and the public value, each
// as a big-endian unsigned integer.
type ElGamalPublicKey struct {
	P, G, Y []byte
}

// Asymmetric is the public-key capability of a backend. Methods are grouped
// by algorithm family and take the curve or parameter set as an argument.
//
// Key material uses the algorithm's native fixed-size encoding: raw
// little-endian keys for Curve25519 and Curve448, seeds for EdDSA, ML-KEM
// and ML-DSA, big-endian scalars and uncompressed SEC1 points for
// Weierstrass curves.
//
// Verify methods return false for a signature that does not match and only
// return an error for malformed input.
type Asymmetric interface {
	// SupportsAlgo reports whether every operation of algo is available.
	SupportsAlgo(algo PublicKeyAlgorithm) bool

	// SupportsCurve reports whether the curve is available.
	SupportsCurve(curve Curve) bool

	DHGenerate(curve Curve) (*KeyPair, error)
	DHDerivePublic(curve Curve, secret *SecretBuffer) ([]byte, error)
	DHShared(curve Curve, secret *SecretBuffer, public []byte) (*SecretBuffer, error)

	EdDSAGenerate(curve Curve) (*KeyPair, error)
	EdDSADerivePublic(curve Curve, secret *SecretBuffer) ([]byte, error)
	EdDSASign(curve Curve, secret *SecretBuffer, digest []byte) ([]byte, error)
	EdDSAVerify(curve Curve, public, digest, sig []byte) (bool, error)

	ECDSAGenerate(curve Curve) (*KeyPair, error)
	ECDSASign(curve Curve, secret *SecretBuffer, digest []byte) (r, s []byte, err error)
	ECDSAVerify(curve Curve, public, digest, r, s []byte) (bool, error)

	MLDSAGenerate(ps ParameterSet) (*KeyPair, error)
	MLDSADerivePublic(ps ParameterSet, secret *SecretBuffer) ([]byte, error)
	MLDSASign(ps ParameterSet, secret *SecretBuffer, digest []byte) ([]byte, error)
	MLDSAVerify(ps ParameterSet, public, digest, sig []byte) (bool, error)

	SLHDSAGenerate(ps ParameterSet) (*KeyPair, error)
	SLHDSASign(ps ParameterSet, secret *SecretBuffer, digest []byte) ([]byte, error)
	SLHDSAVerify(ps ParameterSet, public, digest, sig []byte) (bool, error)

	MLKEMGenerate(ps ParameterSet) (*KeyPair, error)
	MLKEMDerivePublic(ps ParameterSet, secret *SecretBuffer) ([]byte, error)
	MLKEMEncapsulate(ps ParameterSet, public []byte) (ciphertext []byte, shared *SecretBuffer, err error)
	MLKEMDecapsulate(ps ParameterSet, secret *SecretBuffer, ciphertext []byte) (*SecretBuffer, error)

	DSAGenerate(bits int) (*DSAPublicKey, *SecretBuffer, error)
	DSASign(public *DSAPublicKey, x *SecretBuffer, digest []byte) (r, s []byte, err error)
	DSAVerify(public *DSAPublicKey, digest, r, s []byte) (bool, error)

	ElGamalGenerate(bits int) (*ElGamalPublicKey, *SecretBuffer, error)
	ElGamalEncrypt(public *ElGamalPublicKey, msg []byte) (c1, c2 []byte, err error)
	ElGamalDecrypt(public *ElGamalPublicKey, x *SecretBuffer, c1, c2 []byte) (*SecretBuffer, error)
}

// Symmetric is the symmetric-cipher capability of a backend.
type Symmetric interface {
	// SupportsCipher reports whether the block cipher is available.
	SupportsCipher(algo SymmetricAlgorithm) bool

	// SupportsAEAD reports whether the AEAD mode is available for algo.
	SupportsAEAD(algo SymmetricAlgorithm, mode AEADMode) bool

	// Encryptor returns an encryption context. The IV must be one block
	// long for CFB and CBC and empty for ECB.
	Encryptor(algo SymmetricAlgorithm, mode BlockCipherMode, key *SecretBuffer, iv []byte) (Encryptor, error)

	// Decryptor returns a decryption context with the same rules.
	Decryptor(algo SymmetricAlgorithm, mode BlockCipherMode, key *SecretBuffer, iv []byte) (Decryptor, error)

	// AEAD returns an AEAD instance keyed with key.
	AEAD(algo SymmetricAlgorithm, mode AEADMode, key *SecretBuffer) (cipher.AEAD, error)
}

// Kdf is the key-derivation capability of a backend. Both functions fill
// okm completely; its length selects the output length.
type Kdf interface {
	HKDFSHA256(ikm *SecretBuffer, salt, info []byte, okm *SecretBuffer) error
	HKDFSHA512(ikm *SecretBuffer, salt, info []byte, okm *SecretBuffer) error
}

// Provider is a complete backend.
type Provider interface {
	Backend
	Asymmetric
	Symmetric
	Kdf
}

// RandReader adapts a backend's randomness to io.Reader.
func RandReader(b Backend) io.Reader {
	return randReader{b}
}

type randReader struct {
	b Backend
}

func (r randReader) Read(p []byte) (int, error) {
	if err := r.b.Random(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
