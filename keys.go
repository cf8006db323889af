package openpgp

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/backend"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

// KeyFlags describes what a key may be used for (RFC 9580 section 5.2.3.29).
type KeyFlags uint8

// Key usage flags.
const (
	FlagCertify               KeyFlags = 0x01
	FlagSign                  KeyFlags = 0x02
	FlagEncryptCommunications KeyFlags = 0x04
	FlagEncryptStorage        KeyFlags = 0x08
)

func (f KeyFlags) String() string {
	var parts []string
	if f&FlagCertify != 0 {
		parts = append(parts, "certify")
	}
	if f&FlagSign != 0 {
		parts = append(parts, "sign")
	}
	if f&FlagEncryptCommunications != 0 {
		parts = append(parts, "encrypt-communications")
	}
	if f&FlagEncryptStorage != 0 {
		parts = append(parts, "encrypt-storage")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// KeyID is the short identifier of a key.
type KeyID [8]byte

func (id KeyID) String() string {
	return strings.ToUpper(hex.EncodeToString(id[:]))
}

// Composite key layouts: the classical component comes first.
type compositeInfo struct {
	eccAlgo  crypto.PublicKeyAlgorithm
	curve    crypto.Curve
	pq       crypto.ParameterSet
	eccSize  int
	sigSize  int
	kemShare int
}

var composites = map[crypto.PublicKeyAlgorithm]compositeInfo{
	crypto.MLKEM768X25519: {eccAlgo: crypto.X25519, curve: crypto.Curve25519, pq: crypto.MLKEM768, eccSize: crypto.X25519KeySize},
	crypto.MLKEM1024X448:  {eccAlgo: crypto.X448, curve: crypto.Curve448, pq: crypto.MLKEM1024, eccSize: crypto.X448KeySize},
	crypto.MLDSA65Ed25519: {eccAlgo: crypto.Ed25519, curve: crypto.CurveEd25519, pq: crypto.MLDSA65, eccSize: crypto.Ed25519PublicKeySize, sigSize: crypto.Ed25519SignatureSize},
	crypto.MLDSA87Ed448:   {eccAlgo: crypto.Ed448, curve: crypto.CurveEd448, pq: crypto.MLDSA87, eccSize: crypto.Ed448PublicKeySize, sigSize: crypto.Ed448SignatureSize},
}

var slhdsaSets = map[crypto.PublicKeyAlgorithm]crypto.ParameterSet{
	crypto.SLHDSA128s: crypto.SLHDSAShake128s,
	crypto.SLHDSA128f: crypto.SLHDSAShake128f,
	crypto.SLHDSA256s: crypto.SLHDSAShake256s,
}

// fixedCurve returns the curve implied by algorithms that carry no OID.
func fixedCurve(alg crypto.PublicKeyAlgorithm) crypto.Curve {
	switch alg {
	case crypto.X25519:
		return crypto.Curve25519
	case crypto.X448:
		return crypto.Curve448
	case crypto.Ed25519:
		return crypto.CurveEd25519
	case crypto.Ed448:
		return crypto.CurveEd448
	}
	if c, ok := composites[alg]; ok {
		return c.curve
	}
	return crypto.CurveUnknown
}

// requiresV6 reports whether the algorithm is only defined for v6 keys.
func requiresV6(alg crypto.PublicKeyAlgorithm) bool {
	switch alg {
	case crypto.MLDSA65Ed25519, crypto.MLDSA87Ed448,
		crypto.SLHDSA128s, crypto.SLHDSA128f, crypto.SLHDSA256s:
		return true
	}
	return false
}

// PublicKey is the public half of an OpenPGP key.
type PublicKey struct {
	Version   int
	Algorithm crypto.PublicKeyAlgorithm
	Created   time.Time
	Flags     KeyFlags

	// Curve is set for ECDH and ECDSA and implied for the fixed-curve
	// algorithms.
	Curve crypto.Curve

	// KDFHash and KDFCipher are the ECDH key derivation parameters.
	KDFHash   crypto.HashAlgorithm
	KDFCipher crypto.SymmetricAlgorithm

	// Material is the encoded public key. Composite keys store the
	// classical key followed by the post-quantum key.
	Material []byte

	DSA     *crypto.DSAPublicKey
	ElGamal *crypto.ElGamalPublicKey
}

// PrivateKey is a key pair. The secret halves are zeroed by Destroy.
type PrivateKey struct {
	PublicKey

	secret   *crypto.SecretBuffer
	pqSecret *crypto.SecretBuffer
}

// Public returns a copy of the public half.
func (k *PrivateKey) Public() *PublicKey {
	pub := k.PublicKey
	pub.Material = bytes.Clone(k.Material)
	if k.DSA != nil {
		pub.DSA = &crypto.DSAPublicKey{
			P: bytes.Clone(k.DSA.P),
			Q: bytes.Clone(k.DSA.Q),
			G: bytes.Clone(k.DSA.G),
			Y: bytes.Clone(k.DSA.Y),
		}
	}
	if k.ElGamal != nil {
		pub.ElGamal = &crypto.ElGamalPublicKey{
			P: bytes.Clone(k.ElGamal.P),
			G: bytes.Clone(k.ElGamal.G),
			Y: bytes.Clone(k.ElGamal.Y),
		}
	}
	return &pub
}

// Destroy zeroes the secret key material. The key cannot sign or decrypt
// afterwards.
func (k *PrivateKey) Destroy() {
	k.secret.Destroy()
	k.pqSecret.Destroy()
}

// Destroyed reports whether the secret material has been released.
func (k *PrivateKey) Destroyed() bool {
	if _, ok := composites[k.Algorithm]; ok {
		return k.secret.Destroyed() || k.pqSecret.Destroyed()
	}
	return k.secret.Destroyed()
}

// CanEncrypt reports whether the key can receive encrypted messages.
func (k *PublicKey) CanEncrypt() bool {
	return k.Algorithm.CanEncrypt() && k.Flags&(FlagEncryptCommunications|FlagEncryptStorage) != 0
}

// CanSign reports whether the key can make data signatures.
func (k *PublicKey) CanSign() bool {
	return k.Algorithm.CanSign() && k.Flags&FlagSign != 0
}

// eccMaterial returns the classical component of the public key.
func (k *PublicKey) eccMaterial() []byte {
	if c, ok := composites[k.Algorithm]; ok {
		return k.Material[:c.eccSize]
	}
	return k.Material
}

// pqMaterial returns the post-quantum component of a composite or SLH-DSA
// key.
func (k *PublicKey) pqMaterial() []byte {
	if c, ok := composites[k.Algorithm]; ok {
		return k.Material[c.eccSize:]
	}
	return k.Material
}

// materialFields encodes the algorithm-specific public key fields.
func (k *PublicKey) materialFields() []byte {
	var b []byte
	switch k.Algorithm {
	case crypto.ECDSA, crypto.ECDH:
		oid := k.Curve.OID()
		b = append(b, byte(len(oid)))
		b = append(b, oid...)
		b = packet.AppendMPI(b, k.Material)
		if k.Algorithm == crypto.ECDH {
			b = append(b, 3, 1, byte(k.KDFHash), byte(k.KDFCipher))
		}
	case crypto.DSA:
		b = packet.AppendMPI(b, k.DSA.P)
		b = packet.AppendMPI(b, k.DSA.Q)
		b = packet.AppendMPI(b, k.DSA.G)
		b = packet.AppendMPI(b, k.DSA.Y)
	case crypto.ElGamal:
		b = packet.AppendMPI(b, k.ElGamal.P)
		b = packet.AppendMPI(b, k.ElGamal.G)
		b = packet.AppendMPI(b, k.ElGamal.Y)
	default:
		b = append(b, k.Material...)
	}
	return b
}

// serializeBody returns the public key packet body.
func (k *PublicKey) serializeBody() []byte {
	fields := k.materialFields()
	b := make([]byte, 0, 10+len(fields))
	b = append(b, byte(k.Version))
	b = binary.BigEndian.AppendUint32(b, uint32(k.Created.Unix()))
	b = append(b, byte(k.Algorithm))
	if k.Version == 6 {
		b = binary.BigEndian.AppendUint32(b, uint32(len(fields)))
	}
	return append(b, fields...)
}

// Fingerprint returns the v4 (SHA-1, 20 bytes) or v6 (SHA-256, 32 bytes)
// fingerprint.
func (k *PublicKey) Fingerprint() []byte {
	body := k.serializeBody()
	var (
		d   crypto.Digest
		err error
	)
	if k.Version == 6 {
		d, err = crypto.NewDigest(crypto.SHA256)
		if err != nil {
			panic(err)
		}
		d.Write([]byte{0x9B})
		d.Write(binary.BigEndian.AppendUint32(nil, uint32(len(body))))
	} else {
		d = crypto.NewSHA1CD()
		d.Write([]byte{0x99, byte(len(body) >> 8), byte(len(body))})
	}
	d.Write(body)
	out, err := crypto.Sum(d)
	if err != nil {
		// Only a collision on our own key packet can end up here.
		panic(fmt.Sprintf("openpgp: fingerprint: %v", err))
	}
	return out
}

// KeyID returns the low 64 bits of a v4 fingerprint or the high 64 bits of
// a v6 fingerprint.
func (k *PublicKey) KeyID() KeyID {
	var id KeyID
	fpr := k.Fingerprint()
	if k.Version == 6 {
		copy(id[:], fpr[:8])
	} else {
		copy(id[:], fpr[len(fpr)-8:])
	}
	return id
}

// FingerprintHex returns the fingerprint as upper-case hex.
func (k *PublicKey) FingerprintHex() string {
	return strings.ToUpper(hex.EncodeToString(k.Fingerprint()))
}

// parsePublicKeyBody decodes a public key packet body.
func parsePublicKeyBody(body []byte) (*PublicKey, error) {
	if len(body) < 6 {
		return nil, fmt.Errorf("%w: key packet too short", ErrInvalidArgument)
	}
	k := &PublicKey{
		Version:   int(body[0]),
		Created:   time.Unix(int64(binary.BigEndian.Uint32(body[1:5])), 0).UTC(),
		Algorithm: crypto.PublicKeyAlgorithm(body[5]),
	}
	rest := body[6:]
	switch k.Version {
	case 4:
	case 6:
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: key packet too short", ErrInvalidArgument)
		}
		n := binary.BigEndian.Uint32(rest)
		rest = rest[4:]
		if uint64(n) != uint64(len(rest)) {
			return nil, fmt.Errorf("%w: key material length %d, have %d", ErrInvalidArgument, n, len(rest))
		}
	default:
		return nil, fmt.Errorf("%w: key version %d", ErrUnsupported, k.Version)
	}
	k.Curve = fixedCurve(k.Algorithm)

	var err error
	switch k.Algorithm {
	case crypto.ECDSA, crypto.ECDH:
		if len(rest) < 1 || len(rest) < 1+int(rest[0]) {
			return nil, fmt.Errorf("%w: truncated curve OID", ErrInvalidArgument)
		}
		oid := rest[1 : 1+int(rest[0])]
		k.Curve = crypto.CurveFromOID(oid)
		if k.Curve == crypto.CurveUnknown {
			return nil, fmt.Errorf("%w: curve OID %x", ErrUnsupported, oid)
		}
		if k.Material, rest, err = packet.ReadMPI(rest[1+int(rest[0]):]); err != nil {
			return nil, err
		}
		if k.Algorithm == crypto.ECDH {
			if len(rest) != 4 || rest[0] != 3 || rest[1] != 1 {
				return nil, fmt.Errorf("%w: malformed ECDH KDF parameters", ErrInvalidArgument)
			}
			k.KDFHash = crypto.HashAlgorithm(rest[2])
			k.KDFCipher = crypto.SymmetricAlgorithm(rest[3])
			rest = nil
		}
	case crypto.DSA:
		k.DSA = &crypto.DSAPublicKey{}
		for _, dst := range []*[]byte{&k.DSA.P, &k.DSA.Q, &k.DSA.G, &k.DSA.Y} {
			if *dst, rest, err = packet.ReadMPI(rest); err != nil {
				return nil, err
			}
		}
	case crypto.ElGamal:
		k.ElGamal = &crypto.ElGamalPublicKey{}
		for _, dst := range []*[]byte{&k.ElGamal.P, &k.ElGamal.G, &k.ElGamal.Y} {
			if *dst, rest, err = packet.ReadMPI(rest); err != nil {
				return nil, err
			}
		}
	default:
		size := materialSize(k.Algorithm)
		if size == 0 {
			return nil, fmt.Errorf("%w: public key algorithm %v", ErrUnsupported, k.Algorithm)
		}
		if len(rest) != size {
			return nil, fmt.Errorf("%w: %v key material is %d bytes, want %d", ErrInvalidArgument, k.Algorithm, len(rest), size)
		}
		k.Material = bytes.Clone(rest)
		rest = nil
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in key packet", ErrInvalidArgument, len(rest))
	}
	if requiresV6(k.Algorithm) && k.Version != 6 {
		return nil, fmt.Errorf("%w: %v requires a v6 key", ErrInvalidArgument, k.Algorithm)
	}
	return k, nil
}

// materialSize returns the fixed public key size of algorithms that store
// raw key bytes, or 0.
func materialSize(alg crypto.PublicKeyAlgorithm) int {
	if c, ok := composites[alg]; ok {
		return c.eccSize + c.pq.PublicKeySize()
	}
	if ps, ok := slhdsaSets[alg]; ok {
		return ps.PublicKeySize()
	}
	switch alg {
	case crypto.X25519:
		return crypto.X25519KeySize
	case crypto.X448:
		return crypto.X448KeySize
	case crypto.Ed25519:
		return crypto.Ed25519PublicKeySize
	case crypto.Ed448:
		return crypto.Ed448PublicKeySize
	}
	return 0
}

// ecdhKDFDefaults returns the KDF hash and key wrap cipher for a curve
// (RFC 9580 section 9.2).
func ecdhKDFDefaults(curve crypto.Curve) (crypto.HashAlgorithm, crypto.SymmetricAlgorithm) {
	switch curve {
	case crypto.NISTP384, crypto.BrainpoolP384:
		return crypto.SHA384, crypto.AES192
	case crypto.NISTP521, crypto.BrainpoolP512:
		return crypto.SHA512, crypto.AES256
	}
	return crypto.SHA256, crypto.AES128
}

// GenerateKey creates a new key pair for alg using the linked backend unless
// WithKeyBackend selects another one.
func GenerateKey(alg crypto.PublicKeyAlgorithm, opts ...KeyOption) (*PrivateKey, error) {
	cfg := keyConfig{
		backend: backend.Default(),
		created: time.Now(),
		dsaBits: 2048,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.version == 0 {
		cfg.version = 4
		if requiresV6(alg) {
			cfg.version = 6
		}
	}
	if cfg.version != 4 && cfg.version != 6 {
		return nil, fmt.Errorf("%w: key version %d", ErrInvalidArgument, cfg.version)
	}
	if requiresV6(alg) && cfg.version != 6 {
		return nil, fmt.Errorf("%w: %v requires a v6 key", ErrInvalidArgument, alg)
	}
	if !alg.CanSign() && !alg.CanEncrypt() {
		return nil, fmt.Errorf("%w: public key algorithm %v", ErrUnsupported, alg)
	}
	p := cfg.backend
	if !p.SupportsAlgo(alg) {
		return nil, fmt.Errorf("%w: %v with the %s backend", ErrUnsupported, alg, p.Name())
	}

	k := &PrivateKey{PublicKey: PublicKey{
		Version:   cfg.version,
		Algorithm: alg,
		Created:   cfg.created.Truncate(time.Second).UTC(),
		Flags:     cfg.flags,
		Curve:     fixedCurve(alg),
	}}
	if k.Flags == 0 {
		if alg.CanSign() {
			k.Flags |= FlagSign
		}
		if alg.CanEncrypt() {
			k.Flags |= FlagEncryptCommunications | FlagEncryptStorage
		}
	}

	if err := generateMaterial(p, k, &cfg); err != nil {
		k.Destroy()
		return nil, err
	}
	return k, nil
}

func generateMaterial(p crypto.Provider, k *PrivateKey, cfg *keyConfig) error {
	switch alg := k.Algorithm; alg {
	case crypto.X25519, crypto.X448:
		kp, err := p.DHGenerate(k.Curve)
		if err != nil {
			return err
		}
		k.Material, k.secret = kp.Public, kp.Secret
	case crypto.Ed25519, crypto.Ed448:
		kp, err := p.EdDSAGenerate(k.Curve)
		if err != nil {
			return err
		}
		k.Material, k.secret = kp.Public, kp.Secret
	case crypto.ECDSA, crypto.ECDH:
		k.Curve = cfg.curve
		if k.Curve == crypto.CurveUnknown {
			k.Curve = crypto.NISTP256
		}
		if !k.Curve.IsWeierstrass() {
			return fmt.Errorf("%w: %v on %v", ErrUnsupported, alg, k.Curve)
		}
		if !p.SupportsCurve(k.Curve) {
			return fmt.Errorf("%w: %v with the %s backend", ErrUnsupported, k.Curve, p.Name())
		}
		var (
			kp  *crypto.KeyPair
			err error
		)
		if alg == crypto.ECDSA {
			kp, err = p.ECDSAGenerate(k.Curve)
		} else {
			kp, err = p.DHGenerate(k.Curve)
			k.KDFHash, k.KDFCipher = ecdhKDFDefaults(k.Curve)
		}
		if err != nil {
			return err
		}
		k.Material, k.secret = kp.Public, kp.Secret
	case crypto.DSA:
		pub, x, err := p.DSAGenerate(cfg.dsaBits)
		if err != nil {
			return err
		}
		k.DSA, k.secret = pub, x
	case crypto.ElGamal:
		pub, x, err := p.ElGamalGenerate(2048)
		if err != nil {
			return err
		}
		k.ElGamal, k.secret = pub, x
	case crypto.MLKEM768X25519, crypto.MLKEM1024X448:
		c := composites[alg]
		ecc, err := p.DHGenerate(c.curve)
		if err != nil {
			return err
		}
		k.secret = ecc.Secret
		pq, err := p.MLKEMGenerate(c.pq)
		if err != nil {
			return err
		}
		k.pqSecret = pq.Secret
		k.Material = append(ecc.Public, pq.Public...)
	case crypto.MLDSA65Ed25519, crypto.MLDSA87Ed448:
		c := composites[alg]
		ecc, err := p.EdDSAGenerate(c.curve)
		if err != nil {
			return err
		}
		k.secret = ecc.Secret
		pq, err := p.MLDSAGenerate(c.pq)
		if err != nil {
			return err
		}
		k.pqSecret = pq.Secret
		k.Material = append(ecc.Public, pq.Public...)
	case crypto.SLHDSA128s, crypto.SLHDSA128f, crypto.SLHDSA256s:
		kp, err := p.SLHDSAGenerate(slhdsaSets[alg])
		if err != nil {
			return err
		}
		k.Material, k.secret = kp.Public, kp.Secret
	default:
		return fmt.Errorf("%w: public key algorithm %v", ErrUnsupported, alg)
	}
	return nil
}

// checkSecret verifies that the secret material belongs to the public key.
func checkSecret(p crypto.Provider, k *PrivateKey) error {
	var (
		derived []byte
		err     error
	)
	switch k.Algorithm {
	case crypto.X25519, crypto.X448, crypto.ECDH:
		derived, err = p.DHDerivePublic(k.Curve, k.secret)
	case crypto.ECDSA:
		// ECDSA and ECDH share scalar and point encodings.
		derived, err = p.DHDerivePublic(k.Curve, k.secret)
	case crypto.Ed25519, crypto.Ed448:
		derived, err = p.EdDSADerivePublic(k.Curve, k.secret)
	case crypto.MLKEM768X25519, crypto.MLKEM1024X448:
		c := composites[k.Algorithm]
		ecc, err := p.DHDerivePublic(c.curve, k.secret)
		if err != nil {
			return err
		}
		pq, err := p.MLKEMDerivePublic(c.pq, k.pqSecret)
		if err != nil {
			return err
		}
		derived = append(ecc, pq...)
	case crypto.MLDSA65Ed25519, crypto.MLDSA87Ed448:
		c := composites[k.Algorithm]
		ecc, err := p.EdDSADerivePublic(c.curve, k.secret)
		if err != nil {
			return err
		}
		pq, err := p.MLDSADerivePublic(c.pq, k.pqSecret)
		if err != nil {
			return err
		}
		derived = append(ecc, pq...)
	case crypto.DSA:
		return checkDiscreteLog(k.DSA.P, k.DSA.G, k.DSA.Y, k.secret)
	case crypto.ElGamal:
		return checkDiscreteLog(k.ElGamal.P, k.ElGamal.G, k.ElGamal.Y, k.secret)
	case crypto.SLHDSA128s, crypto.SLHDSA128f, crypto.SLHDSA256s:
		ps := slhdsaSets[k.Algorithm]
		if k.secret.Len() != ps.SecretSize() {
			return fmt.Errorf("%w: SLH-DSA secret size", ErrInvalidArgument)
		}
		// The private key ends with a copy of the public key.
		derived = k.secret.Bytes()[ps.SecretSize()-ps.PublicKeySize():]
	default:
		return fmt.Errorf("%w: public key algorithm %v", ErrUnsupported, k.Algorithm)
	}
	if err != nil {
		return err
	}
	if !bytes.Equal(derived, k.Material) {
		return fmt.Errorf("%w: secret key does not match public key", ErrInvalidArgument)
	}
	return nil
}

// checkDiscreteLog verifies y = g^x mod p.
func checkDiscreteLog(p, g, y []byte, x *crypto.SecretBuffer) error {
	pp := new(big.Int).SetBytes(p)
	if pp.Sign() == 0 {
		return fmt.Errorf("%w: zero modulus", ErrInvalidArgument)
	}
	got := new(big.Int).Exp(new(big.Int).SetBytes(g), new(big.Int).SetBytes(x.Bytes()), pp)
	if got.Cmp(new(big.Int).SetBytes(y)) != 0 {
		return fmt.Errorf("%w: secret key does not match public key", ErrInvalidArgument)
	}
	return nil
}
