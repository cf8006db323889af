package openpgp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

// Signature types.
const (
	sigTypeBinary byte = 0x00
	sigTypeText   byte = 0x01
)

// Signature subpacket types.
const (
	subpacketCreationTime       byte = 2
	subpacketIssuerKeyID        byte = 16
	subpacketIssuerFingerprint  byte = 33
	subpacketIntendedRecipient  byte = 35
	subpacketCritical           byte = 0x80
	maxSignatureSubpacketsBytes      = 1 << 16
)

// saltSize returns the v6 signature salt size for h (RFC 9580 section 9.5).
func saltSize(h crypto.HashAlgorithm) int {
	switch h {
	case crypto.SHA256, crypto.SHA224, crypto.SHA3_256:
		return 16
	case crypto.SHA384:
		return 24
	case crypto.SHA512, crypto.SHA3_512:
		return 32
	}
	return 0
}

// signingHashAllowed reports whether h may be used for new signatures.
func signingHashAllowed(h crypto.HashAlgorithm) bool {
	return saltSize(h) != 0
}

// signatureBuilder holds the per-key state of a signature in progress.
type signatureBuilder struct {
	key     *PrivateKey
	sigType byte
	hash    crypto.HashAlgorithm
	salt    []byte
	created time.Time
	digest  crypto.Digest
	hashed  []byte
}

func newSignatureBuilder(p crypto.Provider, key *PrivateKey, cfg *signConfig) (*signatureBuilder, error) {
	d, err := crypto.NewDigest(cfg.hash)
	if err != nil {
		return nil, err
	}
	b := &signatureBuilder{
		key:     key,
		sigType: sigTypeBinary,
		hash:    cfg.hash,
		created: cfg.created,
		digest:  d,
	}
	if cfg.text {
		b.sigType = sigTypeText
	}
	if key.Version == 6 {
		b.salt = make([]byte, saltSize(cfg.hash))
		if err := p.Random(b.salt); err != nil {
			return nil, err
		}
		d.Write(b.salt)
	}
	b.hashed = b.hashedSubpackets(cfg.recipients)
	return b, nil
}

func appendSubpacket(b []byte, typ byte, data []byte) []byte {
	b = packet.AppendLength(b, len(data)+1)
	b = append(b, typ)
	return append(b, data...)
}

func (b *signatureBuilder) hashedSubpackets(recipients []*PublicKey) []byte {
	var sp []byte
	sp = appendSubpacket(sp, subpacketCreationTime|subpacketCritical,
		binary.BigEndian.AppendUint32(nil, uint32(b.created.Unix())))
	fpr := append([]byte{byte(b.key.Version)}, b.key.Fingerprint()...)
	sp = appendSubpacket(sp, subpacketIssuerFingerprint, fpr)
	for _, r := range recipients {
		sp = appendSubpacket(sp, subpacketIntendedRecipient, append([]byte{byte(r.Version)}, r.Fingerprint()...))
	}
	return sp
}

// hashedPrefix returns the signature packet bytes covered by the hash.
func hashedPrefix(version int, sigType byte, pk crypto.PublicKeyAlgorithm, h crypto.HashAlgorithm, hashed []byte) []byte {
	b := []byte{byte(version), sigType, byte(pk), byte(h)}
	if version == 6 {
		b = binary.BigEndian.AppendUint32(b, uint32(len(hashed)))
	} else {
		b = binary.BigEndian.AppendUint16(b, uint16(len(hashed)))
	}
	return append(b, hashed...)
}

// hashTrailer writes the signature trailer into d.
func hashTrailer(d io.Writer, version int, prefix []byte) {
	d.Write(prefix)
	d.Write([]byte{byte(version), 0xFF})
	d.Write(binary.BigEndian.AppendUint32(nil, uint32(len(prefix))))
}

// finish completes the hash, signs it and returns the signature packet body.
func (b *signatureBuilder) finish(p crypto.Provider) ([]byte, error) {
	k := b.key
	prefix := hashedPrefix(k.Version, b.sigType, k.Algorithm, b.hash, b.hashed)
	hashTrailer(b.digest, k.Version, prefix)
	digest, err := crypto.Sum(b.digest)
	if err != nil {
		return nil, err
	}
	fields, err := signDigest(p, k, digest)
	if err != nil {
		return nil, keyError(&k.PublicKey, err)
	}

	var unhashed []byte
	if k.Version == 4 {
		id := k.KeyID()
		unhashed = appendSubpacket(unhashed, subpacketIssuerKeyID, id[:])
	}
	body := prefix
	if k.Version == 6 {
		body = binary.BigEndian.AppendUint32(body, uint32(len(unhashed)))
	} else {
		body = binary.BigEndian.AppendUint16(body, uint16(len(unhashed)))
	}
	body = append(body, unhashed...)
	body = append(body, digest[:2]...)
	if k.Version == 6 {
		body = append(body, byte(len(b.salt)))
		body = append(body, b.salt...)
	}
	return append(body, fields...), nil
}

// onePassBody returns the one-pass signature packet body announcing b.
func (b *signatureBuilder) onePassBody(last bool) []byte {
	k := b.key
	nested := byte(0)
	if last {
		nested = 1
	}
	if k.Version == 6 {
		body := []byte{6, b.sigType, byte(b.hash), byte(k.Algorithm), byte(len(b.salt))}
		body = append(body, b.salt...)
		body = append(body, k.Fingerprint()...)
		return append(body, nested)
	}
	id := k.KeyID()
	body := []byte{3, b.sigType, byte(b.hash), byte(k.Algorithm)}
	body = append(body, id[:]...)
	return append(body, nested)
}

// parsedSignature is a decoded signature packet.
type parsedSignature struct {
	version   int
	sigType   byte
	pubAlgo   crypto.PublicKeyAlgorithm
	hash      crypto.HashAlgorithm
	prefix    []byte
	salt      []byte
	left16    []byte
	fields    []byte
	created   time.Time
	issuerFpr []byte
	issuerID  KeyID
	hasID     bool
}

func parseSignature(body []byte) (*parsedSignature, error) {
	malformed := fmt.Errorf("%w: malformed signature packet", ErrInvalidArgument)
	if len(body) < 4 {
		return nil, malformed
	}
	s := &parsedSignature{
		version: int(body[0]),
		sigType: body[1],
		pubAlgo: crypto.PublicKeyAlgorithm(body[2]),
		hash:    crypto.HashAlgorithm(body[3]),
	}
	rest := body[4:]
	lenSize := 2
	switch s.version {
	case 4:
	case 6:
		lenSize = 4
	default:
		return nil, fmt.Errorf("%w: signature version %d", ErrUnsupported, s.version)
	}

	readArea := func() ([]byte, error) {
		if len(rest) < lenSize {
			return nil, malformed
		}
		var n uint32
		if lenSize == 4 {
			n = binary.BigEndian.Uint32(rest)
		} else {
			n = uint32(binary.BigEndian.Uint16(rest))
		}
		rest = rest[lenSize:]
		if n > maxSignatureSubpacketsBytes || int(n) > len(rest) {
			return nil, malformed
		}
		area := rest[:n]
		rest = rest[n:]
		return area, nil
	}
	hashed, err := readArea()
	if err != nil {
		return nil, err
	}
	s.prefix = body[:len(body)-len(rest)]
	unhashed, err := readArea()
	if err != nil {
		return nil, err
	}
	if len(rest) < 2 {
		return nil, malformed
	}
	s.left16, rest = rest[:2], rest[2:]
	if s.version == 6 {
		if len(rest) < 1 || len(rest) < 1+int(rest[0]) {
			return nil, malformed
		}
		s.salt, rest = rest[1:1+int(rest[0])], rest[1+int(rest[0]):]
		if len(s.salt) != saltSize(s.hash) {
			return nil, malformed
		}
	}
	s.fields = rest

	if err := s.parseSubpackets(hashed, true); err != nil {
		return nil, err
	}
	if err := s.parseSubpackets(unhashed, false); err != nil {
		return nil, err
	}
	if s.created.IsZero() {
		return nil, fmt.Errorf("%w: signature without creation time", ErrInvalidArgument)
	}
	return s, nil
}

func (s *parsedSignature) parseSubpackets(area []byte, hashed bool) error {
	malformed := fmt.Errorf("%w: malformed signature subpacket", ErrInvalidArgument)
	for len(area) > 0 {
		n, hdr, err := subpacketLength(area)
		if err != nil {
			return err
		}
		area = area[hdr:]
		if n == 0 || n > len(area) {
			return malformed
		}
		typ, data := area[0], area[1:n]
		area = area[n:]
		critical := typ&subpacketCritical != 0
		switch typ &^ subpacketCritical {
		case subpacketCreationTime:
			if !hashed || len(data) != 4 {
				return malformed
			}
			s.created = time.Unix(int64(binary.BigEndian.Uint32(data)), 0).UTC()
		case subpacketIssuerFingerprint:
			if len(data) < 1 {
				return malformed
			}
			s.issuerFpr = bytes.Clone(data[1:])
		case subpacketIssuerKeyID:
			if len(data) != 8 {
				return malformed
			}
			copy(s.issuerID[:], data)
			s.hasID = true
		case subpacketIntendedRecipient:
		default:
			if critical && hashed {
				return fmt.Errorf("%w: unknown critical subpacket %d", ErrUnsupported, typ&^subpacketCritical)
			}
		}
	}
	return nil
}

// subpacketLength decodes a subpacket length header and returns the length
// and header size.
func subpacketLength(b []byte) (int, int, error) {
	malformed := fmt.Errorf("%w: malformed signature subpacket", ErrInvalidArgument)
	switch {
	case len(b) < 1:
		return 0, 0, malformed
	case b[0] < 192:
		return int(b[0]), 1, nil
	case b[0] < 255:
		if len(b) < 2 {
			return 0, 0, malformed
		}
		return (int(b[0])-192)<<8 + int(b[1]) + 192, 2, nil
	default:
		if len(b) < 5 {
			return 0, 0, malformed
		}
		return int(binary.BigEndian.Uint32(b[1:5])), 5, nil
	}
}

// issuedBy reports whether the signature names k as its issuer.
func (s *parsedSignature) issuedBy(k *PublicKey) bool {
	if s.issuerFpr != nil {
		return bytes.Equal(s.issuerFpr, k.Fingerprint())
	}
	return s.hasID && s.issuerID == k.KeyID()
}

// newDigest returns a digest primed with the salt, ready for the data.
func (s *parsedSignature) newDigest() (crypto.Digest, error) {
	d, err := crypto.NewDigest(s.hash)
	if err != nil {
		return nil, err
	}
	if s.version == 6 {
		d.Write(s.salt)
	}
	return d, nil
}

// verify finishes d, which has absorbed the signed data, and checks the
// signature against k.
func (s *parsedSignature) verify(p crypto.Provider, k *PublicKey, d crypto.Digest) (bool, error) {
	if s.pubAlgo != k.Algorithm || s.version != k.Version {
		return false, nil
	}
	hashTrailer(d, s.version, s.prefix)
	digest, err := crypto.Sum(d)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(digest[:2], s.left16) {
		return false, nil
	}
	return verifyDigest(p, k, digest, s.fields)
}

// textCanonicalizer converts line endings to CRLF for text signatures.
type textCanonicalizer struct {
	w      io.Writer
	prevCR bool
	buf    []byte
}

func (t *textCanonicalizer) Write(p []byte) (int, error) {
	t.buf = t.buf[:0]
	for _, c := range p {
		switch {
		case c == '\n' && !t.prevCR:
			t.buf = append(t.buf, '\r', '\n')
		case c != '\n' && t.prevCR:
			t.buf = append(t.buf, '\n', c)
		default:
			t.buf = append(t.buf, c)
		}
		t.prevCR = c == '\r'
	}
	if _, err := t.w.Write(t.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close completes a carriage return left pending at the end of the input,
// so a trailing lone CR hashes as CRLF like one in the middle.
func (t *textCanonicalizer) Close() error {
	if !t.prevCR {
		return nil
	}
	t.prevCR = false
	_, err := t.w.Write([]byte{'\n'})
	return err
}

// closeHasher flushes w if it buffers state.
func closeHasher(w io.Writer) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
