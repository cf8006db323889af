package openpgp

import (
	"encoding/binary"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp/aes/keywrap"
	"golang.org/x/crypto/sha3"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

const compositeDomain = "OpenPGPCompositeKDFv1"

// encryptSessionKey wraps sk for k and returns the algorithm-specific PKESK
// fields. The cipher octet is only carried by v3 packets.
func encryptSessionKey(p crypto.Provider, k *PublicKey, v6 bool, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
	switch k.Algorithm {
	case crypto.X25519, crypto.X448:
		return encryptX(p, k, v6, cipher, sk)
	case crypto.ECDH:
		return encryptECDH(p, k, v6, cipher, sk)
	case crypto.ElGamal:
		if v6 {
			return nil, fmt.Errorf("%w: ElGamal cannot be used with v6 PKESK", ErrInvalidArgument)
		}
		m := encodeSessionKey(v6, cipher, sk)
		defer crypto.Zeroize(m)
		c1, c2, err := p.ElGamalEncrypt(k.ElGamal, m)
		if err != nil {
			return nil, err
		}
		return packet.AppendMPI(packet.AppendMPI(nil, c1), c2), nil
	case crypto.MLKEM768X25519, crypto.MLKEM1024X448:
		return encryptComposite(p, k, v6, cipher, sk)
	}
	return nil, fmt.Errorf("%w: cannot encrypt to %v", ErrUnsupported, k.Algorithm)
}

// decryptSessionKey recovers the session key from PKESK fields. For v6
// packets the returned cipher is zero.
func decryptSessionKey(p crypto.Provider, k *PrivateKey, v6 bool, fields []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	if k.Destroyed() {
		return 0, nil, fmt.Errorf("%w: key has been destroyed", ErrSequencing)
	}
	switch k.Algorithm {
	case crypto.X25519, crypto.X448:
		return decryptX(p, k, v6, fields)
	case crypto.ECDH:
		return decryptECDH(p, k, v6, fields)
	case crypto.ElGamal:
		c1, rest, err := packet.ReadMPI(fields)
		if err != nil {
			return 0, nil, err
		}
		c2, _, err := packet.ReadMPI(rest)
		if err != nil {
			return 0, nil, err
		}
		m, err := p.ElGamalDecrypt(k.ElGamal, k.secret, c1, c2)
		if err != nil {
			return 0, nil, err
		}
		defer m.Destroy()
		return decodeSessionKey(v6, m.Bytes())
	case crypto.MLKEM768X25519, crypto.MLKEM1024X448:
		return decryptComposite(p, k, v6, fields)
	}
	return 0, nil, fmt.Errorf("%w: cannot decrypt with %v", ErrUnsupported, k.Algorithm)
}

// encodeSessionKey returns [cipher] || key || checksum.
func encodeSessionKey(v6 bool, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) []byte {
	key := sk.Bytes()
	m := make([]byte, 0, len(key)+3)
	if !v6 {
		m = append(m, byte(cipher))
	}
	m = append(m, key...)
	return binary.BigEndian.AppendUint16(m, checksum(key))
}

func decodeSessionKey(v6 bool, m []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	var cipher crypto.SymmetricAlgorithm
	if !v6 {
		if len(m) < 1 {
			return 0, nil, fmt.Errorf("%w: empty session key", ErrDecryptionFailed)
		}
		cipher, m = crypto.SymmetricAlgorithm(m[0]), m[1:]
	}
	if len(m) < 3 {
		return 0, nil, fmt.Errorf("%w: session key too short", ErrDecryptionFailed)
	}
	key, sum := m[:len(m)-2], binary.BigEndian.Uint16(m[len(m)-2:])
	if checksum(key) != sum {
		return 0, nil, fmt.Errorf("%w: session key checksum mismatch", ErrDecryptionFailed)
	}
	if !v6 && cipher.KeySize() != len(key) {
		return 0, nil, fmt.Errorf("%w: session key size %d for %v", ErrDecryptionFailed, len(key), cipher)
	}
	return cipher, crypto.SecretBufferCopy(key), nil
}

func checksum(key []byte) uint16 {
	var sum uint16
	for _, b := range key {
		sum += uint16(b)
	}
	return sum
}

// xParams returns the HKDF, KEK size and info string of X25519 and X448
// session key wrapping (RFC 9580 sections 5.1.6 and 5.1.7).
func xParams(p crypto.Provider, alg crypto.PublicKeyAlgorithm) (func(ikm *crypto.SecretBuffer, salt, info []byte, okm *crypto.SecretBuffer) error, int, string) {
	if alg == crypto.X448 {
		return p.HKDFSHA512, 32, "OpenPGP X448"
	}
	return p.HKDFSHA256, 16, "OpenPGP X25519"
}

func xKEK(p crypto.Provider, k *PublicKey, eph []byte, shared *crypto.SecretBuffer) (*crypto.SecretBuffer, error) {
	kdf, size, info := xParams(p, k.Algorithm)
	ikm := crypto.NewSecretBuffer(len(eph) + len(k.Material) + shared.Len())
	defer ikm.Destroy()
	n := copy(ikm.Bytes(), eph)
	n += copy(ikm.Bytes()[n:], k.Material)
	copy(ikm.Bytes()[n:], shared.Bytes())
	kek := crypto.NewSecretBuffer(size)
	if err := kdf(ikm, nil, []byte(info), kek); err != nil {
		kek.Destroy()
		return nil, err
	}
	return kek, nil
}

func encryptX(p crypto.Provider, k *PublicKey, v6 bool, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
	eph, err := p.DHGenerate(k.Curve)
	if err != nil {
		return nil, err
	}
	defer eph.Destroy()
	shared, err := p.DHShared(k.Curve, eph.Secret, k.Material)
	if err != nil {
		return nil, err
	}
	defer shared.Destroy()
	kek, err := xKEK(p, k, eph.Public, shared)
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()
	wrapped, err := keywrap.Wrap(kek.Bytes(), sk.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptographicFailure, err)
	}
	return appendWrapped(append([]byte(nil), eph.Public...), v6, cipher, wrapped), nil
}

func decryptX(p crypto.Provider, k *PrivateKey, v6 bool, fields []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	size := k.Curve.PointSize()
	if len(fields) < size {
		return 0, nil, fmt.Errorf("%w: truncated ephemeral key", ErrInvalidArgument)
	}
	eph := fields[:size]
	cipher, wrapped, err := splitWrapped(fields[size:], v6)
	if err != nil {
		return 0, nil, err
	}
	shared, err := p.DHShared(k.Curve, k.secret, eph)
	if err != nil {
		return 0, nil, err
	}
	defer shared.Destroy()
	kek, err := xKEK(p, &k.PublicKey, eph, shared)
	if err != nil {
		return 0, nil, err
	}
	defer kek.Destroy()
	return unwrapKey(kek, cipher, v6, wrapped)
}

// appendWrapped appends size || [cipher] || wrapped.
func appendWrapped(b []byte, v6 bool, cipher crypto.SymmetricAlgorithm, wrapped []byte) []byte {
	n := len(wrapped)
	if !v6 {
		n++
	}
	b = append(b, byte(n))
	if !v6 {
		b = append(b, byte(cipher))
	}
	return append(b, wrapped...)
}

// splitWrapped parses size || [cipher] || wrapped.
func splitWrapped(b []byte, v6 bool) (crypto.SymmetricAlgorithm, []byte, error) {
	if len(b) < 1 || int(b[0]) != len(b)-1 {
		return 0, nil, fmt.Errorf("%w: malformed wrapped session key", ErrInvalidArgument)
	}
	b = b[1:]
	var cipher crypto.SymmetricAlgorithm
	if !v6 {
		if len(b) < 1 {
			return 0, nil, fmt.Errorf("%w: malformed wrapped session key", ErrInvalidArgument)
		}
		cipher, b = crypto.SymmetricAlgorithm(b[0]), b[1:]
	}
	return cipher, b, nil
}

func unwrapKey(kek *crypto.SecretBuffer, cipher crypto.SymmetricAlgorithm, v6 bool, wrapped []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	key, err := keywrap.Unwrap(kek.Bytes(), wrapped)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	sk := crypto.SecretBufferFromBytes(key)
	if !v6 && cipher.KeySize() != sk.Len() {
		sk.Destroy()
		return 0, nil, fmt.Errorf("%w: session key size %d for %v", ErrDecryptionFailed, len(key), cipher)
	}
	return cipher, sk, nil
}

// ecdhParam builds the RFC 9580 section 11.5 KDF parameter block.
func ecdhParam(k *PublicKey) []byte {
	oid := k.Curve.OID()
	b := append([]byte{byte(len(oid))}, oid...)
	b = append(b, byte(crypto.ECDH), 3, 1, byte(k.KDFHash), byte(k.KDFCipher))
	b = append(b, "Anonymous Sender    "...)
	return append(b, k.Fingerprint()...)
}

func ecdhKEK(k *PublicKey, shared *crypto.SecretBuffer) (*crypto.SecretBuffer, error) {
	size := k.KDFCipher.KeySize()
	if size == 0 || k.KDFCipher.BlockSize() != 16 {
		return nil, fmt.Errorf("%w: ECDH key wrap cipher %v", ErrUnsupported, k.KDFCipher)
	}
	d, err := crypto.NewDigest(k.KDFHash)
	if err != nil {
		return nil, err
	}
	if d.Size() < size {
		return nil, fmt.Errorf("%w: ECDH KDF hash %v too short for %v", ErrInvalidArgument, k.KDFHash, k.KDFCipher)
	}
	d.Write([]byte{0, 0, 0, 1})
	d.Write(shared.Bytes())
	d.Write(ecdhParam(k))
	out := crypto.NewSecretBuffer(d.Size())
	defer out.Destroy()
	if err := d.Digest(out.Bytes()); err != nil {
		return nil, err
	}
	return crypto.SecretBufferCopy(out.Bytes()[:size]), nil
}

func encryptECDH(p crypto.Provider, k *PublicKey, v6 bool, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
	eph, err := p.DHGenerate(k.Curve)
	if err != nil {
		return nil, err
	}
	defer eph.Destroy()
	shared, err := p.DHShared(k.Curve, eph.Secret, k.Material)
	if err != nil {
		return nil, err
	}
	defer shared.Destroy()
	kek, err := ecdhKEK(k, shared)
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	raw := encodeSessionKey(v6, cipher, sk)
	m := pkcs5Pad(raw)
	crypto.Zeroize(raw)
	defer crypto.Zeroize(m)
	wrapped, err := keywrap.Wrap(kek.Bytes(), m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptographicFailure, err)
	}
	b := packet.AppendMPI(nil, eph.Public)
	b = append(b, byte(len(wrapped)))
	return append(b, wrapped...), nil
}

func decryptECDH(p crypto.Provider, k *PrivateKey, v6 bool, fields []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	eph, rest, err := packet.ReadMPI(fields)
	if err != nil {
		return 0, nil, err
	}
	if len(rest) < 1 || int(rest[0]) != len(rest)-1 {
		return 0, nil, fmt.Errorf("%w: malformed ECDH session key", ErrInvalidArgument)
	}
	shared, err := p.DHShared(k.Curve, k.secret, eph)
	if err != nil {
		return 0, nil, err
	}
	defer shared.Destroy()
	kek, err := ecdhKEK(&k.PublicKey, shared)
	if err != nil {
		return 0, nil, err
	}
	defer kek.Destroy()
	m, err := keywrap.Unwrap(kek.Bytes(), rest[1:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	defer crypto.Zeroize(m)
	m, err = pkcs5Unpad(m)
	if err != nil {
		return 0, nil, err
	}
	return decodeSessionKey(v6, m)
}

// pkcs5Pad returns a padded copy of m. The caller owns and zeroizes both.
func pkcs5Pad(m []byte) []byte {
	n := 8 - len(m)%8
	out := make([]byte, len(m)+n)
	copy(out, m)
	for i := len(m); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs5Unpad(m []byte) ([]byte, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: empty padded session key", ErrDecryptionFailed)
	}
	n := int(m[len(m)-1])
	if n == 0 || n > 8 || n > len(m) {
		return nil, fmt.Errorf("%w: invalid session key padding", ErrDecryptionFailed)
	}
	for _, b := range m[len(m)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid session key padding", ErrDecryptionFailed)
		}
	}
	return m[:len(m)-n], nil
}

// compositeKEK combines the ML-KEM and ECDH shares into the key wrapping
// key with SHA3-256.
func compositeKEK(k *PublicKey, mlkemShare, eccShare *crypto.SecretBuffer, eccCT []byte) *crypto.SecretBuffer {
	h := sha3.New256()
	h.Write(mlkemShare.Bytes())
	h.Write(eccShare.Bytes())
	h.Write(eccCT)
	h.Write(k.eccMaterial())
	h.Write([]byte{byte(k.Algorithm)})
	h.Write([]byte(compositeDomain))
	h.Write([]byte{byte(len(compositeDomain))})
	return crypto.SecretBufferFromBytes(h.Sum(nil))
}

func encryptComposite(p crypto.Provider, k *PublicKey, v6 bool, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
	c := composites[k.Algorithm]
	eph, err := p.DHGenerate(c.curve)
	if err != nil {
		return nil, err
	}
	defer eph.Destroy()
	eccShare, err := p.DHShared(c.curve, eph.Secret, k.eccMaterial())
	if err != nil {
		return nil, err
	}
	defer eccShare.Destroy()
	mlkemCT, mlkemShare, err := p.MLKEMEncapsulate(c.pq, k.pqMaterial())
	if err != nil {
		return nil, err
	}
	defer mlkemShare.Destroy()

	kek := compositeKEK(k, mlkemShare, eccShare, eph.Public)
	defer kek.Destroy()
	wrapped, err := keywrap.Wrap(kek.Bytes(), sk.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptographicFailure, err)
	}
	b := append(append([]byte(nil), eph.Public...), mlkemCT...)
	return appendWrapped(b, v6, cipher, wrapped), nil
}

func decryptComposite(p crypto.Provider, k *PrivateKey, v6 bool, fields []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	c := composites[k.Algorithm]
	eccSize, ctSize := c.curve.PointSize(), c.pq.OutputSize()
	if len(fields) < eccSize+ctSize {
		return 0, nil, fmt.Errorf("%w: truncated composite ciphertext", ErrInvalidArgument)
	}
	eccCT, mlkemCT := fields[:eccSize], fields[eccSize:eccSize+ctSize]
	cipher, wrapped, err := splitWrapped(fields[eccSize+ctSize:], v6)
	if err != nil {
		return 0, nil, err
	}
	eccShare, err := p.DHShared(c.curve, k.secret, eccCT)
	if err != nil {
		return 0, nil, err
	}
	defer eccShare.Destroy()
	mlkemShare, err := p.MLKEMDecapsulate(c.pq, k.pqSecret, mlkemCT)
	if err != nil {
		return 0, nil, err
	}
	defer mlkemShare.Destroy()
	kek := compositeKEK(&k.PublicKey, mlkemShare, eccShare, eccCT)
	defer kek.Destroy()
	return unwrapKey(kek, cipher, v6, wrapped)
}
