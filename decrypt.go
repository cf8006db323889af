package openpgp

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/backend"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

// SignatureResult is the outcome of checking one signature.
type SignatureResult struct {
	// KeyID and Fingerprint identify the issuer as named by the signature.
	KeyID       KeyID
	Fingerprint []byte
	Algorithm   crypto.PublicKeyAlgorithm
	Hash        crypto.HashAlgorithm
	Created     time.Time
	// Valid is true when a verification key matched and the signature
	// verified.
	Valid bool
	// Err explains an invalid result that is not a plain mismatch, such as
	// a missing key or an unsupported algorithm.
	Err error
}

// MessageDetails is the result of Decrypt.
type MessageDetails struct {
	Data     []byte
	Format   LiteralFormat
	Filename string
	ModTime  time.Time

	IsEncrypted         bool
	SEIPDVersion        int
	SessionKeyAlgorithm crypto.SymmetricAlgorithm
	AEADMode            crypto.AEADMode

	Signatures []SignatureResult
}

// SignaturesValid reports whether the message carries at least one
// signature and every signature verified.
func (d *MessageDetails) SignaturesValid() bool {
	if len(d.Signatures) == 0 {
		return false
	}
	for _, s := range d.Signatures {
		if !s.Valid {
			return false
		}
	}
	return true
}

// reader holds the state of one Decrypt or VerifyDetached call.
type reader struct {
	cfg    readConfig
	p      crypto.Provider
	logger logrus.FieldLogger
}

func newReader(opts []ReadOption) *reader {
	cfg := readConfig{
		logger:  discardLogger(),
		backend: backend.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &reader{cfg: cfg, p: cfg.backend, logger: cfg.logger}
}

// Decrypt reads an armored or binary message, decrypts it when it is
// encrypted and checks its signatures. Signature failures are reported in
// MessageDetails.Signatures rather than as errors.
func Decrypt(r io.Reader, opts ...ReadOption) (*MessageDetails, error) {
	rd := newReader(opts)
	data, err := maybeUnarmor(r)
	if err != nil {
		return nil, err
	}

	var (
		pkesks []*pkesk
		skesks [][]byte
	)
	pr := packet.NewReader(bytes.NewReader(data))
	for {
		tag, body, err := pr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: no encrypted or literal data", ErrInvalidArgument)
		}
		if err != nil {
			return nil, err
		}
		switch tag {
		case packet.TagPKESK:
			e, err := parsePKESK(body)
			if err != nil {
				rd.logger.WithError(err).Debug("skipping unreadable PKESK")
				continue
			}
			pkesks = append(pkesks, e)
		case packet.TagSKESK:
			skesks = append(skesks, body)
		case packet.TagPadding:
		case packet.TagSEIPD:
			details := &MessageDetails{IsEncrypted: true}
			plaintext, err := rd.decryptSEIPD(body, pkesks, skesks, details)
			if err != nil {
				return nil, err
			}
			if err := rd.readMessage(plaintext, details); err != nil {
				return nil, err
			}
			return details, nil
		default:
			if len(pkesks) > 0 || len(skesks) > 0 {
				return nil, fmt.Errorf("%w: unexpected %v packet after session keys", ErrInvalidArgument, tag)
			}
			details := &MessageDetails{}
			if err := rd.readMessage(data, details); err != nil {
				return nil, err
			}
			return details, nil
		}
	}
}

// decryptSEIPD tries every matching key and password until one session key
// authenticates the encrypted data.
func (rd *reader) decryptSEIPD(body []byte, pkesks []*pkesk, skesks [][]byte, details *MessageDetails) ([]byte, error) {
	var lastErr error
	try := func(cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
		defer sk.Destroy()
		return rd.openSEIPD(body, cipher, sk, details)
	}

	for _, e := range pkesks {
		for _, k := range rd.cfg.decryptionKeys {
			if k == nil || !e.matches(&k.PublicKey) {
				continue
			}
			cipher, sk, err := e.decrypt(rd.p, k)
			if err != nil {
				rd.logger.WithError(err).WithField("key", k.KeyID()).Debug("PKESK did not decrypt")
				lastErr = err
				continue
			}
			pt, err := try(cipher, sk)
			if err == nil {
				return pt, nil
			}
			if errors.Is(err, ErrCollisionDetected) {
				return nil, err
			}
			lastErr = err
		}
	}
	for _, body := range skesks {
		for _, pw := range rd.cfg.passwords {
			cipher, sk, err := decryptSKESK(rd.p, body, pw)
			if err != nil {
				rd.logger.WithError(err).Debug("SKESK did not decrypt")
				lastErr = err
				continue
			}
			pt, err := try(cipher, sk)
			if err == nil {
				return pt, nil
			}
			if errors.Is(err, ErrCollisionDetected) {
				return nil, err
			}
			lastErr = err
		}
	}
	if lastErr != nil && !errors.Is(lastErr, ErrDecryptionFailed) {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, lastErr)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrDecryptionFailed
}

func (rd *reader) openSEIPD(body []byte, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer, details *MessageDetails) ([]byte, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("%w: empty SEIPD packet", ErrInvalidArgument)
	}
	switch body[0] {
	case 1:
		if cipher == 0 {
			return nil, fmt.Errorf("%w: v6 session key used with SEIPD v1", ErrDecryptionFailed)
		}
		pt, err := rd.openV1(body[1:], cipher, sk)
		if err != nil {
			return nil, err
		}
		details.SEIPDVersion, details.SessionKeyAlgorithm = 1, cipher
		return pt, nil
	case 2:
		return rd.openV2(body[1:], sk, details)
	}
	return nil, fmt.Errorf("%w: SEIPD version %d", ErrUnsupported, body[0])
}

func (rd *reader) openV1(data []byte, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
	bs := cipher.BlockSize()
	if bs == 0 || sk.Len() != cipher.KeySize() {
		return nil, fmt.Errorf("%w: session key does not fit %v", ErrDecryptionFailed, cipher)
	}
	if len(data) < bs+2+22 {
		return nil, fmt.Errorf("%w: SEIPD packet too short", ErrInvalidArgument)
	}
	dec, err := rd.p.Decryptor(cipher, crypto.ModeCFB, sk, make([]byte, bs))
	if err != nil {
		return nil, err
	}
	pt := make([]byte, len(data))
	if err := dec.Decrypt(pt, data); err != nil {
		return nil, err
	}
	dec.Finish()
	if pt[bs-2] != pt[bs] || pt[bs-1] != pt[bs+1] {
		return nil, fmt.Errorf("%w: wrong session key", ErrDecryptionFailed)
	}

	mdc := crypto.NewSHA1CD()
	mdc.Write(pt[:len(pt)-20])
	sum, err := mdc.Finalize()
	if err != nil {
		return nil, err
	}
	trailer := pt[len(pt)-22:]
	if trailer[0] != 0xD3 || trailer[1] != 0x14 || subtle.ConstantTimeCompare(sum, trailer[2:]) != 1 {
		return nil, fmt.Errorf("%w: modification detected", ErrDecryptionFailed)
	}
	return pt[bs+2 : len(pt)-22], nil
}

func (rd *reader) openV2(data []byte, sk *crypto.SecretBuffer, details *MessageDetails) ([]byte, error) {
	if len(data) < 3+seipdSaltSize+crypto.AEADTagSize {
		return nil, fmt.Errorf("%w: SEIPD packet too short", ErrInvalidArgument)
	}
	cipher, mode, chunkByte := crypto.SymmetricAlgorithm(data[0]), crypto.AEADMode(data[1]), int(data[2])
	if chunkByte > maxChunkByte {
		return nil, fmt.Errorf("%w: chunk size octet %d", ErrInvalidArgument, chunkByte)
	}
	if sk.Len() != cipher.KeySize() || mode.NonceSize() == 0 {
		return nil, fmt.Errorf("%w: session key does not fit %v/%v", ErrDecryptionFailed, cipher, mode)
	}
	salt := data[3 : 3+seipdSaltSize]
	ad := []byte{0xD2, 2, byte(cipher), byte(mode), byte(chunkByte)}

	keySize := cipher.KeySize()
	okm := crypto.NewSecretBuffer(keySize + mode.NonceSize() - 8)
	defer okm.Destroy()
	if err := rd.p.HKDFSHA256(sk, salt, ad, okm); err != nil {
		return nil, err
	}
	key := crypto.SecretBufferCopy(okm.Bytes()[:keySize])
	defer key.Destroy()
	aead, err := rd.p.AEAD(cipher, mode, key)
	if err != nil {
		return nil, err
	}
	iv := okm.Bytes()[keySize:]
	nonce := func(i uint64) []byte {
		return binary.BigEndian.AppendUint64(append([]byte(nil), iv...), i)
	}

	ct := data[3+seipdSaltSize:]
	ct, finalTag := ct[:len(ct)-crypto.AEADTagSize], ct[len(ct)-crypto.AEADTagSize:]
	chunkSize := 1<<(chunkByte+6) + crypto.AEADTagSize
	var (
		pt    []byte
		index uint64
	)
	for len(ct) > 0 {
		n := min(chunkSize, len(ct))
		if n <= crypto.AEADTagSize {
			return nil, fmt.Errorf("%w: truncated chunk", ErrDecryptionFailed)
		}
		pt, err = aead.Open(pt, nonce(index), ct[:n], ad)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d failed authentication", ErrDecryptionFailed, index)
		}
		ct = ct[n:]
		index++
	}
	finalAD := binary.BigEndian.AppendUint64(append([]byte(nil), ad...), uint64(len(pt)))
	if _, err := aead.Open(nil, nonce(index), finalTag, finalAD); err != nil {
		return nil, fmt.Errorf("%w: final tag failed authentication", ErrDecryptionFailed)
	}
	details.SEIPDVersion, details.SessionKeyAlgorithm, details.AEADMode = 2, cipher, mode
	return pt, nil
}

// readMessage parses an optionally signed literal message.
func (rd *reader) readMessage(data []byte, details *MessageDetails) error {
	var (
		sigs    []*parsedSignature
		results []SignatureResult
		found   bool
	)
	pr := packet.NewReader(bytes.NewReader(data))
	for {
		tag, body, err := pr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch tag {
		case packet.TagOnePassSignature, packet.TagPadding:
		case packet.TagLiteral:
			if found {
				return fmt.Errorf("%w: more than one literal data packet", ErrInvalidArgument)
			}
			if err := parseLiteral(body, details); err != nil {
				return err
			}
			found = true
		case packet.TagSignature:
			s, err := parseSignature(body)
			if err != nil {
				results = append(results, SignatureResult{Err: err})
				continue
			}
			sigs = append(sigs, s)
		case packet.TagCompressed:
			return fmt.Errorf("%w: compressed data", ErrUnsupported)
		default:
			return fmt.Errorf("%w: unexpected %v packet", ErrInvalidArgument, tag)
		}
	}
	if !found {
		return fmt.Errorf("%w: no literal data packet", ErrInvalidArgument)
	}
	for _, s := range sigs {
		results = append(results, rd.verifyOne(s, bytes.NewReader(details.Data)))
	}
	details.Signatures = results
	return nil
}

func parseLiteral(body []byte, details *MessageDetails) error {
	if len(body) < 2 || len(body) < 2+int(body[1])+4 {
		return fmt.Errorf("%w: malformed literal data packet", ErrInvalidArgument)
	}
	n := int(body[1])
	details.Format = LiteralFormat(body[0])
	details.Filename = string(body[2 : 2+n])
	if date := binary.BigEndian.Uint32(body[2+n:]); date != 0 {
		details.ModTime = time.Unix(int64(date), 0).UTC()
	}
	details.Data = body[2+n+4:]
	return nil
}

func resultFor(s *parsedSignature) SignatureResult {
	r := SignatureResult{
		Algorithm:   s.pubAlgo,
		Hash:        s.hash,
		Created:     s.created,
		Fingerprint: s.issuerFpr,
		KeyID:       s.issuerID,
	}
	if !s.hasID && len(s.issuerFpr) >= 8 {
		if s.version == 6 {
			copy(r.KeyID[:], s.issuerFpr[:8])
		} else {
			copy(r.KeyID[:], s.issuerFpr[len(s.issuerFpr)-8:])
		}
	}
	return r
}

// verifyOne hashes data for s and checks it against the verification keys.
func (rd *reader) verifyOne(s *parsedSignature, data io.Reader) SignatureResult {
	res := resultFor(s)
	key := rd.issuer(s)
	if key == nil {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownIssuer, res.KeyID)
		return res
	}
	d, err := s.newDigest()
	if err != nil {
		res.Err = err
		return res
	}
	if err := hashSigned(s, d, data); err != nil {
		res.Err = err
		return res
	}
	res.Valid, res.Err = s.verify(rd.p, key, d)
	return res
}

func (rd *reader) issuer(s *parsedSignature) *PublicKey {
	for _, k := range rd.cfg.verificationKeys {
		if k != nil && s.issuedBy(k) {
			return k
		}
	}
	return nil
}

// hashSigned copies data into d, canonicalizing text signatures.
func hashSigned(s *parsedSignature, d crypto.Digest, data io.Reader) error {
	var w io.Writer = d
	switch s.sigType {
	case sigTypeBinary:
	case sigTypeText:
		w = &textCanonicalizer{w: d}
	default:
		return fmt.Errorf("%w: signature type %#x", ErrUnsupported, s.sigType)
	}
	if _, err := io.Copy(w, data); err != nil {
		return err
	}
	return closeHasher(w)
}

// VerifyDetached checks detached signatures, armored or binary, over data.
// It returns an error only when the signature input cannot be read; each
// signature's outcome is in its SignatureResult.
func VerifyDetached(sig, data io.Reader, keys ...*PublicKey) ([]SignatureResult, error) {
	rd := newReader([]ReadOption{WithVerificationKeys(keys...)})
	raw, err := maybeUnarmor(sig)
	if err != nil {
		return nil, err
	}

	var (
		results []SignatureResult
		sigs    []*parsedSignature
		digests []crypto.Digest
		writers []io.Writer
	)
	pr := packet.NewReader(bytes.NewReader(raw))
	for {
		tag, body, err := pr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if tag != packet.TagSignature {
			return nil, fmt.Errorf("%w: unexpected %v packet in detached signature", ErrInvalidArgument, tag)
		}
		s, err := parseSignature(body)
		if err != nil {
			results = append(results, SignatureResult{Err: err})
			continue
		}
		d, err := s.newDigest()
		if err != nil {
			res := resultFor(s)
			res.Err = err
			results = append(results, res)
			continue
		}
		var w io.Writer = d
		switch s.sigType {
		case sigTypeBinary:
		case sigTypeText:
			w = &textCanonicalizer{w: d}
		default:
			res := resultFor(s)
			res.Err = fmt.Errorf("%w: signature type %#x", ErrUnsupported, s.sigType)
			results = append(results, res)
			continue
		}
		sigs = append(sigs, s)
		digests = append(digests, d)
		writers = append(writers, w)
	}
	if len(sigs) == 0 && len(results) == 0 {
		return nil, fmt.Errorf("%w: no signature packets", ErrInvalidArgument)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), data); err != nil {
		return nil, err
	}
	for _, w := range writers {
		if err := closeHasher(w); err != nil {
			return nil, err
		}
	}
	for i, s := range sigs {
		res := resultFor(s)
		key := rd.issuer(s)
		if key == nil {
			res.Err = fmt.Errorf("%w: %s", ErrUnknownIssuer, res.KeyID)
		} else {
			res.Valid, res.Err = s.verify(rd.p, key, digests[i])
		}
		results = append(results, res)
	}
	return results, nil
}
