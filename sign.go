package openpgp

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

// signer is the signing stage.
type signer struct {
	m        *Message
	p        crypto.Provider
	builders []*signatureBuilder
	detached bool
	hasher   io.Writer
}

// NewSigner returns a signing stage inside m that signs with every key in
// keys. Unless Detached is given, one-pass signature packets are written
// immediately, the data must be written through a literal stage, and the
// signatures follow it.
func NewSigner(m *Message, keys []*PrivateKey, opts ...SignOption) (*Message, error) {
	sm, err := attach(m, kindSign)
	if err != nil {
		return nil, err
	}
	cfg := signConfig{hash: defaultHash, created: time.Now()}
	for _, opt := range opts {
		opt(&cfg)
	}
	s, err := newSigner(sm, keys, &cfg)
	if err != nil {
		return nil, sm.wrap("build", err)
	}
	return sm.link(s), nil
}

func newSigner(sm *Message, keys []*PrivateKey, cfg *signConfig) (*signer, error) {
	p := sm.backend()
	if len(keys) == 0 {
		return nil, ErrNoSigningKey
	}
	if !signingHashAllowed(cfg.hash) {
		return nil, fmt.Errorf("%w: hash %v cannot be used for new signatures", ErrInvalidArgument, cfg.hash)
	}
	s := &signer{m: sm, p: p, detached: cfg.detached}
	for _, k := range keys {
		if k == nil || !k.CanSign() || k.Destroyed() {
			return nil, ErrNoSigningKey
		}
		if !p.SupportsAlgo(k.Algorithm) {
			return nil, keyError(&k.PublicKey, fmt.Errorf("%w: %v with the %s backend", ErrUnsupported, k.Algorithm, p.Name()))
		}
		b, err := newSignatureBuilder(p, k, cfg)
		if err != nil {
			return nil, keyError(&k.PublicKey, err)
		}
		s.builders = append(s.builders, b)
		sm.logger.WithFields(logrus.Fields{
			"key":       k.KeyID(),
			"algorithm": k.Algorithm,
			"hash":      cfg.hash,
		}).Debug("signing key added")
	}

	writers := make([]io.Writer, len(s.builders))
	for i, b := range s.builders {
		writers[i] = b.digest
	}
	s.hasher = io.MultiWriter(writers...)
	if cfg.text {
		s.hasher = &textCanonicalizer{w: s.hasher}
	}

	if !s.detached {
		out := outerWriter{sm.outer}
		for i, b := range s.builders {
			if err := packet.Serialize(out, packet.TagOnePassSignature, b.onePassBody(i == len(s.builders)-1)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// hash feeds signed data into every digest.
func (s *signer) hash(p []byte) error {
	_, err := s.hasher.Write(p)
	return err
}

// write forwards framed packets from the literal stage.
func (s *signer) write(p []byte) error {
	return s.m.outer.emit(p)
}

func (s *signer) finalize() error {
	if err := closeHasher(s.hasher); err != nil {
		return err
	}
	out := outerWriter{s.m.outer}
	emit := func(b *signatureBuilder) error {
		body, err := b.finish(s.p)
		if err != nil {
			return err
		}
		return packet.Serialize(out, packet.TagSignature, body)
	}
	if s.detached {
		for _, b := range s.builders {
			if err := emit(b); err != nil {
				return err
			}
		}
		return nil
	}
	// Signatures close the one-pass brackets in reverse order.
	for i := len(s.builders) - 1; i >= 0; i-- {
		if err := emit(s.builders[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *signer) abort() {
	for _, b := range s.builders {
		b.digest.Reset()
	}
}
