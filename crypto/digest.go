package crypto

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Digest is a stateful hash accumulator.
//
// Digest writes the hash value into out and silently resets the state, so
// the same object can accumulate a new message. Callers that need one-shot
// semantics should discard the object after extraction.
type Digest interface {
	io.Writer

	// Algorithm returns the hash algorithm.
	Algorithm() HashAlgorithm

	// Size returns the digest length in bytes.
	Size() int

	// Digest writes the hash value into out, which must be exactly Size
	// bytes long, and resets the state.
	Digest(out []byte) error

	// Reset discards all accumulated input.
	Reset()
}

// NewDigest returns a Digest for the given algorithm. SHA-1 is always the
// collision-detecting implementation.
func NewDigest(alg HashAlgorithm) (Digest, error) {
	if alg == SHA1 {
		return NewSHA1CD(), nil
	}
	var h hash.Hash
	switch alg {
	case MD5:
		h = md5.New()
	case RIPEMD160:
		h = ripemd160.New()
	case SHA224:
		h = sha256.New224()
	case SHA256:
		h = sha256.New()
	case SHA384:
		h = sha512.New384()
	case SHA512:
		h = sha512.New()
	case SHA3_256:
		h = sha3.New256()
	case SHA3_512:
		h = sha3.New512()
	default:
		return nil, fmt.Errorf("%w: hash %v", ErrUnsupported, alg)
	}
	return &hashDigest{alg: alg, h: h}, nil
}

// Sum extracts the digest into a freshly allocated slice.
func Sum(d Digest) ([]byte, error) {
	out := make([]byte, d.Size())
	if err := d.Digest(out); err != nil {
		return nil, err
	}
	return out, nil
}

type hashDigest struct {
	alg HashAlgorithm
	h   hash.Hash
}

func (d *hashDigest) Write(p []byte) (int, error) { return d.h.Write(p) }

func (d *hashDigest) Algorithm() HashAlgorithm { return d.alg }

func (d *hashDigest) Size() int { return d.h.Size() }

func (d *hashDigest) Digest(out []byte) error {
	if len(out) != d.h.Size() {
		return fmt.Errorf("%w: digest buffer is %d bytes, want %d", ErrInvalidArgument, len(out), d.h.Size())
	}
	d.h.Sum(out[:0])
	d.h.Reset()
	return nil
}

func (d *hashDigest) Reset() { d.h.Reset() }
