package crypto

import (
	"fmt"
	"hash"

	"github.com/pjbgf/sha1cd"
)

// SHA1CD is a SHA-1 accumulator instrumented for collision detection. When
// the input matches the disturbance patterns of a known collision attack,
// extraction fails with ErrCollisionDetected instead of returning a value
// that an attacker could have forged.
type SHA1CD struct {
	h         hash.Hash
	cd        collisionResistant
	finalized bool
}

type collisionResistant interface {
	CollisionResistantSum(in []byte) ([]byte, bool)
}

// NewSHA1CD returns a fresh collision-detecting SHA-1 accumulator.
func NewSHA1CD() *SHA1CD {
	h := sha1cd.New()
	return &SHA1CD{h: h, cd: h.(collisionResistant)}
}

// Write adds p to the running hash. It fails with ErrSequencing once the
// accumulator has been finalized.
func (d *SHA1CD) Write(p []byte) (int, error) {
	if d.finalized {
		return 0, fmt.Errorf("%w: write to finalized SHA-1 state", ErrSequencing)
	}
	return d.h.Write(p)
}

// Algorithm returns SHA1.
func (d *SHA1CD) Algorithm() HashAlgorithm { return SHA1 }

// Size returns 20.
func (d *SHA1CD) Size() int { return d.h.Size() }

// Finalize consumes the accumulator and returns the hash value. The state
// stays finalized whatever the outcome; only Reset makes it usable again.
func (d *SHA1CD) Finalize() ([]byte, error) {
	if d.finalized {
		return nil, fmt.Errorf("%w: SHA-1 state already finalized", ErrSequencing)
	}
	d.finalized = true
	sum, collision := d.cd.CollisionResistantSum(nil)
	if collision {
		return nil, ErrCollisionDetected
	}
	return sum, nil
}

// Digest writes the hash value into out and resets the state. If a
// collision is detected the state is left untouched and out is not written.
func (d *SHA1CD) Digest(out []byte) error {
	if d.finalized {
		return fmt.Errorf("%w: SHA-1 state already finalized", ErrSequencing)
	}
	if len(out) != d.h.Size() {
		return fmt.Errorf("%w: digest buffer is %d bytes, want %d", ErrInvalidArgument, len(out), d.h.Size())
	}
	sum, collision := d.cd.CollisionResistantSum(nil)
	if collision {
		return ErrCollisionDetected
	}
	copy(out, sum)
	d.h.Reset()
	return nil
}

// Reset returns the accumulator to its initial state.
func (d *SHA1CD) Reset() {
	d.h.Reset()
	d.finalized = false
}
