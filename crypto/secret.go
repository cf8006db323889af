package crypto

import (
	"crypto/subtle"
	"runtime"
)

// SecretBuffer holds key material. Its memory is overwritten with zeros when
// the buffer is destroyed, and by a runtime cleanup if the owner drops it
// without calling Destroy.
//
// A SecretBuffer is owned by exactly one component. It is not safe for
// concurrent use.
type SecretBuffer struct {
	b       []byte
	cleanup runtime.Cleanup
}

// NewSecretBuffer allocates a zero-filled buffer of n bytes.
func NewSecretBuffer(n int) *SecretBuffer {
	if n < 0 {
		n = 0
	}
	return newSecretBuffer(make([]byte, n))
}

// SecretBufferFromBytes takes ownership of b. The caller must not use b
// afterwards; it is zeroed together with the buffer.
func SecretBufferFromBytes(b []byte) *SecretBuffer {
	return newSecretBuffer(b)
}

// SecretBufferCopy copies b into a fresh buffer and leaves b untouched.
func SecretBufferCopy(b []byte) *SecretBuffer {
	s := NewSecretBuffer(len(b))
	copy(s.b, b)
	return s
}

func newSecretBuffer(b []byte) *SecretBuffer {
	s := &SecretBuffer{b: b}
	if len(b) > 0 {
		s.cleanup = runtime.AddCleanup(s, zeroize, b)
	}
	return s
}

// Bytes borrows the secret. The slice is only valid until Destroy.
func (s *SecretBuffer) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len returns the length of the secret, or 0 once destroyed.
func (s *SecretBuffer) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Clone returns an independent copy of the secret.
func (s *SecretBuffer) Clone() *SecretBuffer {
	return SecretBufferCopy(s.Bytes())
}

// Equal reports whether both buffers hold the same bytes, in constant time
// with respect to their contents.
func (s *SecretBuffer) Equal(other *SecretBuffer) bool {
	return subtle.ConstantTimeCompare(s.Bytes(), other.Bytes()) == 1
}

// Destroyed reports whether Destroy has been called.
func (s *SecretBuffer) Destroyed() bool {
	return s == nil || s.b == nil
}

// Destroy zeroes the secret and releases it. Destroy is idempotent.
func (s *SecretBuffer) Destroy() {
	if s == nil || s.b == nil {
		return
	}
	s.cleanup.Stop()
	zeroize(s.b)
	s.b = nil
}

func zeroize(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// Zeroize overwrites b with zeros. It is meant for transient copies of
// secrets that never lived in a SecretBuffer.
func Zeroize(b []byte) {
	zeroize(b)
}

// KeyPair is an asymmetric key pair. Public is sized per algorithm.
type KeyPair struct {
	Secret *SecretBuffer
	Public []byte
}

// Destroy zeroes the secret half of the pair.
func (k *KeyPair) Destroy() {
	if k == nil {
		return
	}
	k.Secret.Destroy()
}
