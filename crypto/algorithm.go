package crypto

import (
	"bytes"
	"fmt"
)

// PublicKeyAlgorithm identifies an OpenPGP public-key algorithm.
type PublicKeyAlgorithm uint8

// Public-key algorithm identifiers (RFC 9580 section 9.1 and
// draft-ietf-openpgp-pqc).
const (
	RSA            PublicKeyAlgorithm = 1
	ElGamal        PublicKeyAlgorithm = 16
	DSA            PublicKeyAlgorithm = 17
	ECDH           PublicKeyAlgorithm = 18
	ECDSA          PublicKeyAlgorithm = 19
	EdDSALegacy    PublicKeyAlgorithm = 22
	X25519         PublicKeyAlgorithm = 25
	X448           PublicKeyAlgorithm = 26
	Ed25519        PublicKeyAlgorithm = 27
	Ed448          PublicKeyAlgorithm = 28
	MLDSA65Ed25519 PublicKeyAlgorithm = 30
	MLDSA87Ed448   PublicKeyAlgorithm = 31
	SLHDSA128s     PublicKeyAlgorithm = 32
	SLHDSA128f     PublicKeyAlgorithm = 33
	SLHDSA256s     PublicKeyAlgorithm = 34
	MLKEM768X25519 PublicKeyAlgorithm = 35
	MLKEM1024X448  PublicKeyAlgorithm = 36
)

var publicKeyAlgorithmNames = map[PublicKeyAlgorithm]string{
	RSA:            "RSA",
	ElGamal:        "ElGamal",
	DSA:            "DSA",
	ECDH:           "ECDH",
	ECDSA:          "ECDSA",
	EdDSALegacy:    "EdDSALegacy",
	X25519:         "X25519",
	X448:           "X448",
	Ed25519:        "Ed25519",
	Ed448:          "Ed448",
	MLDSA65Ed25519: "ML-DSA-65+Ed25519",
	MLDSA87Ed448:   "ML-DSA-87+Ed448",
	SLHDSA128s:     "SLH-DSA-SHAKE-128s",
	SLHDSA128f:     "SLH-DSA-SHAKE-128f",
	SLHDSA256s:     "SLH-DSA-SHAKE-256s",
	MLKEM768X25519: "ML-KEM-768+X25519",
	MLKEM1024X448:  "ML-KEM-1024+X448",
}

func (a PublicKeyAlgorithm) String() string {
	if name, ok := publicKeyAlgorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("PublicKeyAlgorithm(%d)", uint8(a))
}

// CanSign reports whether the algorithm produces signatures.
func (a PublicKeyAlgorithm) CanSign() bool {
	switch a {
	case RSA, DSA, ECDSA, EdDSALegacy, Ed25519, Ed448,
		MLDSA65Ed25519, MLDSA87Ed448, SLHDSA128s, SLHDSA128f, SLHDSA256s:
		return true
	}
	return false
}

// CanEncrypt reports whether the algorithm can wrap a session key.
func (a PublicKeyAlgorithm) CanEncrypt() bool {
	switch a {
	case RSA, ElGamal, ECDH, X25519, X448, MLKEM768X25519, MLKEM1024X448:
		return true
	}
	return false
}

// Curve identifies an elliptic curve.
type Curve uint8

// Supported curves.
const (
	CurveUnknown Curve = iota
	NISTP256
	NISTP384
	NISTP521
	BrainpoolP256
	BrainpoolP384
	BrainpoolP512
	Secp256k1
	Curve25519
	Curve448
	CurveEd25519
	CurveEd448
)

type curveInfo struct {
	name       string
	oid        []byte
	scalarSize int
	pointSize  int
}

var curves = map[Curve]curveInfo{
	NISTP256:      {"NIST P-256", []byte{0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07}, 32, 65},
	NISTP384:      {"NIST P-384", []byte{0x2B, 0x81, 0x04, 0x00, 0x22}, 48, 97},
	NISTP521:      {"NIST P-521", []byte{0x2B, 0x81, 0x04, 0x00, 0x23}, 66, 133},
	BrainpoolP256: {"brainpoolP256r1", []byte{0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x07}, 32, 65},
	BrainpoolP384: {"brainpoolP384r1", []byte{0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x0B}, 48, 97},
	BrainpoolP512: {"brainpoolP512r1", []byte{0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x0D}, 64, 129},
	Secp256k1:     {"secp256k1", []byte{0x2B, 0x81, 0x04, 0x00, 0x0A}, 32, 65},
	Curve25519:    {"Curve25519", []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01}, 32, 32},
	Curve448:      {"Curve448", []byte{0x2B, 0x65, 0x6F}, 56, 56},
	CurveEd25519:  {"Ed25519", []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0xDA, 0x47, 0x0F, 0x01}, 32, 32},
	CurveEd448:    {"Ed448", []byte{0x2B, 0x65, 0x71}, 57, 57},
}

func (c Curve) String() string {
	if info, ok := curves[c]; ok {
		return info.name
	}
	return fmt.Sprintf("Curve(%d)", uint8(c))
}

// OID returns the curve's ASN.1 object identifier without the DER tag and
// length, as it appears in OpenPGP key material.
func (c Curve) OID() []byte {
	return bytes.Clone(curves[c].oid)
}

// ScalarSize returns the length of a secret scalar (or seed) in bytes.
func (c Curve) ScalarSize() int {
	return curves[c].scalarSize
}

// PointSize returns the length of an encoded public point in bytes. Weierstrass
// curves use the uncompressed SEC1 encoding.
func (c Curve) PointSize() int {
	return curves[c].pointSize
}

// IsWeierstrass reports whether points on the curve use SEC1 encoding.
func (c Curve) IsWeierstrass() bool {
	switch c {
	case NISTP256, NISTP384, NISTP521, BrainpoolP256, BrainpoolP384, BrainpoolP512, Secp256k1:
		return true
	}
	return false
}

// CurveFromOID returns the curve with the given OID, or CurveUnknown.
func CurveFromOID(oid []byte) Curve {
	for c, info := range curves {
		if bytes.Equal(info.oid, oid) {
			return c
		}
	}
	return CurveUnknown
}

// SymmetricAlgorithm identifies an OpenPGP symmetric cipher.
type SymmetricAlgorithm uint8

// Symmetric algorithm identifiers (RFC 9580 section 9.3).
const (
	TripleDES SymmetricAlgorithm = 2
	CAST5     SymmetricAlgorithm = 3
	Blowfish  SymmetricAlgorithm = 4
	AES128    SymmetricAlgorithm = 7
	AES192    SymmetricAlgorithm = 8
	AES256    SymmetricAlgorithm = 9
	Twofish   SymmetricAlgorithm = 10
)

var symmetricInfo = map[SymmetricAlgorithm]struct {
	name      string
	keySize   int
	blockSize int
}{
	TripleDES: {"TripleDES", 24, 8},
	CAST5:     {"CAST5", 16, 8},
	Blowfish:  {"Blowfish", 16, 8},
	AES128:    {"AES-128", 16, 16},
	AES192:    {"AES-192", 24, 16},
	AES256:    {"AES-256", 32, 16},
	Twofish:   {"Twofish", 32, 16},
}

func (s SymmetricAlgorithm) String() string {
	if info, ok := symmetricInfo[s]; ok {
		return info.name
	}
	return fmt.Sprintf("SymmetricAlgorithm(%d)", uint8(s))
}

// KeySize returns the key length in bytes, or 0 for unknown algorithms.
func (s SymmetricAlgorithm) KeySize() int {
	return symmetricInfo[s].keySize
}

// BlockSize returns the block length in bytes, or 0 for unknown algorithms.
func (s SymmetricAlgorithm) BlockSize() int {
	return symmetricInfo[s].blockSize
}

// HashAlgorithm identifies an OpenPGP hash algorithm.
type HashAlgorithm uint8

// Hash algorithm identifiers (RFC 9580 section 9.5).
const (
	MD5       HashAlgorithm = 1
	SHA1      HashAlgorithm = 2
	RIPEMD160 HashAlgorithm = 3
	SHA256    HashAlgorithm = 8
	SHA384    HashAlgorithm = 9
	SHA512    HashAlgorithm = 10
	SHA224    HashAlgorithm = 11
	SHA3_256  HashAlgorithm = 12
	SHA3_512  HashAlgorithm = 14
)

var hashInfo = map[HashAlgorithm]struct {
	name string
	size int
}{
	MD5:       {"MD5", 16},
	SHA1:      {"SHA1", 20},
	RIPEMD160: {"RIPEMD160", 20},
	SHA256:    {"SHA256", 32},
	SHA384:    {"SHA384", 48},
	SHA512:    {"SHA512", 64},
	SHA224:    {"SHA224", 28},
	SHA3_256:  {"SHA3-256", 32},
	SHA3_512:  {"SHA3-512", 64},
}

func (h HashAlgorithm) String() string {
	if info, ok := hashInfo[h]; ok {
		return info.name
	}
	return fmt.Sprintf("HashAlgorithm(%d)", uint8(h))
}

// Size returns the digest length in bytes, or 0 for unknown algorithms.
func (h HashAlgorithm) Size() int {
	return hashInfo[h].size
}

// AEADMode identifies an OpenPGP AEAD mode.
type AEADMode uint8

// AEAD mode identifiers (RFC 9580 section 9.6).
const (
	AEADModeEAX AEADMode = 1
	AEADModeOCB AEADMode = 2
	AEADModeGCM AEADMode = 3
)

func (m AEADMode) String() string {
	switch m {
	case AEADModeEAX:
		return "EAX"
	case AEADModeOCB:
		return "OCB"
	case AEADModeGCM:
		return "GCM"
	}
	return fmt.Sprintf("AEADMode(%d)", uint8(m))
}

// NonceSize returns the nonce length in bytes, or 0 for unknown modes.
func (m AEADMode) NonceSize() int {
	switch m {
	case AEADModeEAX:
		return 16
	case AEADModeOCB:
		return 15
	case AEADModeGCM:
		return 12
	}
	return 0
}

// TagSize returns the authentication tag length in bytes.
func (m AEADMode) TagSize() int {
	return AEADTagSize
}

// BlockCipherMode selects how a block cipher context chains blocks.
type BlockCipherMode uint8

// Block cipher modes.
const (
	ModeCFB BlockCipherMode = iota + 1
	ModeCBC
	ModeECB
)

func (m BlockCipherMode) String() string {
	switch m {
	case ModeCFB:
		return "CFB"
	case ModeCBC:
		return "CBC"
	case ModeECB:
		return "ECB"
	}
	return fmt.Sprintf("BlockCipherMode(%d)", uint8(m))
}

// ParameterSet selects a member of a post-quantum algorithm family.
type ParameterSet uint8

// Post-quantum parameter sets.
const (
	MLKEM768 ParameterSet = iota + 1
	MLKEM1024
	MLDSA65
	MLDSA87
	SLHDSAShake128s
	SLHDSAShake128f
	SLHDSAShake256s
)

var parameterSetInfo = map[ParameterSet]struct {
	name       string
	publicSize int
	secretSize int
	outputSize int
}{
	MLKEM768:        {"ML-KEM-768", MLKEM768PublicKeySize, MLKEMSeedSize, MLKEM768CiphertextSize},
	MLKEM1024:       {"ML-KEM-1024", MLKEM1024PublicKeySize, MLKEMSeedSize, MLKEM1024CiphertextSize},
	MLDSA65:         {"ML-DSA-65", MLDSA65PublicKeySize, MLDSASeedSize, MLDSA65SignatureSize},
	MLDSA87:         {"ML-DSA-87", MLDSA87PublicKeySize, MLDSASeedSize, MLDSA87SignatureSize},
	SLHDSAShake128s: {"SLH-DSA-SHAKE-128s", 32, 64, 7856},
	SLHDSAShake128f: {"SLH-DSA-SHAKE-128f", 32, 64, 17088},
	SLHDSAShake256s: {"SLH-DSA-SHAKE-256s", 64, 128, 29792},
}

func (p ParameterSet) String() string {
	if info, ok := parameterSetInfo[p]; ok {
		return info.name
	}
	return fmt.Sprintf("ParameterSet(%d)", uint8(p))
}

// PublicKeySize returns the encoded public key length in bytes.
func (p ParameterSet) PublicKeySize() int { return parameterSetInfo[p].publicSize }

// SecretSize returns the length of the secret key material in bytes: the
// seed for ML-KEM and ML-DSA, the full private key for SLH-DSA.
func (p ParameterSet) SecretSize() int { return parameterSetInfo[p].secretSize }

// OutputSize returns the signature length for signature schemes and the
// ciphertext length for key encapsulation schemes.
func (p ParameterSet) OutputSize() int { return parameterSetInfo[p].outputSize }

// IsKEM reports whether the parameter set belongs to ML-KEM.
func (p ParameterSet) IsKEM() bool { return p == MLKEM768 || p == MLKEM1024 }

// IsMLDSA reports whether the parameter set belongs to ML-DSA.
func (p ParameterSet) IsMLDSA() bool { return p == MLDSA65 || p == MLDSA87 }

// IsSLHDSA reports whether the parameter set belongs to SLH-DSA.
func (p ParameterSet) IsSLHDSA() bool {
	return p == SLHDSAShake128s || p == SLHDSAShake128f || p == SLHDSAShake256s
}
