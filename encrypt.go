package openpgp

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

const seipdSaltSize = 32

// encryptor is the encryption stage. It owns the session key.
type encryptor struct {
	m          *Message
	p          crypto.Provider
	sessionKey *crypto.SecretBuffer
	pw         *packet.PartialWriter
	padding    int
	scratch    []byte

	// SEIPD v1
	cfb crypto.Encryptor
	mdc *crypto.SHA1CD

	// SEIPD v2
	aead      cipher.AEAD
	iv        []byte
	ad        []byte
	chunkSize int
	chunk     []byte
	index     uint64
	total     uint64
}

// NewEncryptor returns an encryption stage inside m. It generates a session
// key, writes one PKESK per eligible recipient and one SKESK per password,
// and starts the encrypted data packet.
func NewEncryptor(m *Message, opts ...EncryptOption) (*Message, error) {
	e, err := attach(m, kindEncrypt)
	if err != nil {
		return nil, err
	}
	cfg := encryptConfig{
		chunkByte: defaultChunkByte,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s, err := newEncryptor(e, &cfg)
	if err != nil {
		return nil, e.wrap("build", err)
	}
	return e.link(s), nil
}

func newEncryptor(e *Message, cfg *encryptConfig) (*encryptor, error) {
	p := e.backend()
	if cfg.chunkByte < 0 || cfg.chunkByte > maxChunkByte {
		return nil, fmt.Errorf("%w: chunk size octet %d", ErrInvalidArgument, cfg.chunkByte)
	}
	if cfg.padding < 0 {
		return nil, fmt.Errorf("%w: negative padding", ErrInvalidArgument)
	}
	if cfg.cipher == 0 {
		cfg.cipher = defaultCipher
	}
	if !p.SupportsCipher(cfg.cipher) {
		return nil, fmt.Errorf("%w: cipher %v with the %s backend", ErrUnsupported, cfg.cipher, p.Name())
	}

	recipients := eligibleRecipients(e.logger, p, cfg)
	v6 := selectProfile(cfg, recipients) == ProfileRFC9580
	if v6 {
		// ElGamal has no v6 PKESK encoding.
		kept := recipients[:0]
		for _, r := range recipients {
			if r.Algorithm == crypto.ElGamal {
				e.logger.WithField("key", r.KeyID()).Debug("skipping ElGamal recipient for v6 PKESK")
				continue
			}
			kept = append(kept, r)
		}
		recipients = kept
		if err := selectAEAD(e.logger, p, cfg); err != nil {
			return nil, err
		}
	}
	if len(recipients) == 0 && len(cfg.passwords) == 0 {
		return nil, ErrNoRecipients
	}
	version := 1
	if v6 {
		version = 2
	}
	e.logger.WithFields(logrus.Fields{
		"seipd":      version,
		"cipher":     cfg.cipher,
		"recipients": len(recipients),
		"passwords":  len(cfg.passwords),
	}).Debug("encryption parameters")

	s := &encryptor{m: e, p: p, padding: cfg.padding}
	s.sessionKey = crypto.NewSecretBuffer(cfg.cipher.KeySize())
	if err := p.Random(s.sessionKey.Bytes()); err != nil {
		s.abort()
		return nil, err
	}

	out := outerWriter{e.outer}
	for _, r := range recipients {
		body, err := pkeskBody(p, r, v6, cfg.cipher, s.sessionKey)
		if err != nil {
			s.abort()
			return nil, err
		}
		if err := packet.Serialize(out, packet.TagPKESK, body); err != nil {
			s.abort()
			return nil, err
		}
	}
	for _, pw := range cfg.passwords {
		body, err := skeskBody(p, pw, v6, cfg.cipher, cfg.aead, cfg.s2k, s.sessionKey)
		if err != nil {
			s.abort()
			return nil, err
		}
		if err := packet.Serialize(out, packet.TagSKESK, body); err != nil {
			s.abort()
			return nil, err
		}
	}

	s.pw = packet.NewPartialWriter(out, packet.TagSEIPD)
	var err error
	if v6 {
		err = s.startV2(cfg)
	} else {
		err = s.startV1(cfg)
	}
	if err != nil {
		s.abort()
		return nil, err
	}
	return s, nil
}

// eligibleRecipients drops keys that cannot receive the message.
func eligibleRecipients(logger logrus.FieldLogger, p crypto.Provider, cfg *encryptConfig) []*PublicKey {
	var out []*PublicKey
	for _, r := range cfg.recipients {
		if r == nil {
			continue
		}
		log := logger.WithFields(logrus.Fields{"key": r.KeyID(), "algorithm": r.Algorithm})
		switch {
		case !r.CanEncrypt():
			log.Debug("skipping recipient without an encryption-capable key")
		case cfg.flags != 0 && r.Flags&cfg.flags == 0:
			log.Debug("skipping recipient not flagged for this purpose")
		case !p.SupportsAlgo(r.Algorithm):
			log.Debug("skipping recipient unsupported by the backend")
		case r.Algorithm == crypto.ECDH && !p.SupportsCurve(r.Curve):
			log.Debug("skipping recipient on an unsupported curve")
		default:
			out = append(out, r)
		}
	}
	return out
}

// selectProfile upgrades to RFC 9580 when a recipient cannot be served by
// RFC 4880 packets.
func selectProfile(cfg *encryptConfig, recipients []*PublicKey) Profile {
	if cfg.profile != ProfileAuto {
		return cfg.profile
	}
	for _, r := range recipients {
		if r.Version == 6 || r.Algorithm == crypto.MLKEM768X25519 || r.Algorithm == crypto.MLKEM1024X448 {
			return ProfileRFC9580
		}
	}
	return ProfileRFC4880
}

func selectAEAD(logger logrus.FieldLogger, p crypto.Provider, cfg *encryptConfig) error {
	if cfg.aead == 0 {
		cfg.aead = defaultAEAD
		if !p.SupportsAEAD(cfg.cipher, cfg.aead) {
			cfg.aead = crypto.AEADModeGCM
		}
	}
	if !p.SupportsAEAD(cfg.cipher, cfg.aead) {
		return fmt.Errorf("%w: %v/%v with the %s backend", ErrUnsupported, cfg.cipher, cfg.aead, p.Name())
	}
	logger.WithField("aead", cfg.aead).Debug("selected AEAD mode")
	return nil
}

func (s *encryptor) startV1(cfg *encryptConfig) error {
	bs := cfg.cipher.BlockSize()
	enc, err := s.p.Encryptor(cfg.cipher, crypto.ModeCFB, s.sessionKey, make([]byte, bs))
	if err != nil {
		return err
	}
	s.cfb = enc
	s.mdc = crypto.NewSHA1CD()
	if _, err := s.pw.Write([]byte{1}); err != nil {
		return err
	}
	prefix := make([]byte, bs+2)
	if err := s.p.Random(prefix[:bs]); err != nil {
		return err
	}
	prefix[bs], prefix[bs+1] = prefix[bs-2], prefix[bs-1]
	return s.writeV1(prefix)
}

func (s *encryptor) writeV1(p []byte) error {
	s.mdc.Write(p)
	if cap(s.scratch) < len(p) {
		s.scratch = make([]byte, len(p))
	}
	ct := s.scratch[:len(p)]
	if err := s.cfb.Encrypt(ct, p); err != nil {
		return err
	}
	_, err := s.pw.Write(ct)
	return err
}

func (s *encryptor) startV2(cfg *encryptConfig) error {
	mode := cfg.aead
	s.ad = []byte{0xD2, 2, byte(cfg.cipher), byte(mode), byte(cfg.chunkByte)}
	salt := make([]byte, seipdSaltSize)
	if err := s.p.Random(salt); err != nil {
		return err
	}
	keySize, ivSize := cfg.cipher.KeySize(), mode.NonceSize()-8
	okm := crypto.NewSecretBuffer(keySize + ivSize)
	defer okm.Destroy()
	if err := s.p.HKDFSHA256(s.sessionKey, salt, s.ad, okm); err != nil {
		return err
	}
	key := crypto.SecretBufferCopy(okm.Bytes()[:keySize])
	defer key.Destroy()
	aead, err := s.p.AEAD(cfg.cipher, mode, key)
	if err != nil {
		return err
	}
	s.aead = aead
	s.iv = append([]byte(nil), okm.Bytes()[keySize:]...)
	s.chunkSize = 1 << (cfg.chunkByte + 6)
	s.chunk = make([]byte, 0, s.chunkSize)

	header := append([]byte{2, byte(cfg.cipher), byte(mode), byte(cfg.chunkByte)}, salt...)
	_, err = s.pw.Write(header)
	return err
}

func (s *encryptor) nonce(index uint64) []byte {
	n := make([]byte, 0, len(s.iv)+8)
	n = append(n, s.iv...)
	return binary.BigEndian.AppendUint64(n, index)
}

func (s *encryptor) sealChunk() error {
	ct := s.aead.Seal(s.scratch[:0], s.nonce(s.index), s.chunk, s.ad)
	s.scratch = ct[:0]
	s.total += uint64(len(s.chunk))
	s.index++
	s.chunk = s.chunk[:0]
	_, err := s.pw.Write(ct)
	return err
}

func (s *encryptor) writeV2(p []byte) error {
	for len(p) > 0 {
		n := min(s.chunkSize-len(s.chunk), len(p))
		s.chunk = append(s.chunk, p[:n]...)
		p = p[n:]
		if len(s.chunk) == s.chunkSize {
			if err := s.sealChunk(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *encryptor) write(p []byte) error {
	if s.aead != nil {
		return s.writeV2(p)
	}
	return s.writeV1(p)
}

func (s *encryptor) finalize() error {
	defer s.abort()
	if s.padding > 0 {
		pad := make([]byte, s.padding)
		if err := s.p.Random(pad); err != nil {
			return err
		}
		if err := s.write(append(packet.AppendHeader(nil, packet.TagPadding, len(pad)), pad...)); err != nil {
			return err
		}
	}
	if s.aead != nil {
		if len(s.chunk) > 0 {
			if err := s.sealChunk(); err != nil {
				return err
			}
		}
		ad := binary.BigEndian.AppendUint64(append([]byte(nil), s.ad...), s.total)
		tag := s.aead.Seal(nil, s.nonce(s.index), nil, ad)
		if _, err := s.pw.Write(tag); err != nil {
			return err
		}
	} else {
		trailer := []byte{0xD3, 0x14}
		s.mdc.Write(trailer)
		sum, err := s.mdc.Finalize()
		if err != nil {
			return err
		}
		if err := s.writeV1NoHash(append(trailer, sum...)); err != nil {
			return err
		}
		if err := s.cfb.Finish(); err != nil {
			return err
		}
	}
	return s.pw.Close()
}

// writeV1NoHash encrypts bytes that are not covered by the MDC.
func (s *encryptor) writeV1NoHash(p []byte) error {
	ct := make([]byte, len(p))
	if err := s.cfb.Encrypt(ct, p); err != nil {
		return err
	}
	_, err := s.pw.Write(ct)
	return err
}

func (s *encryptor) abort() {
	s.sessionKey.Destroy()
	s.aead = nil
}
