package crypto

import (
	"bytes"
	"testing"
)

func TestSecretBuffer_New(t *testing.T) {
	t.Parallel()
	s := NewSecretBuffer(32)
	if s.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", s.Len())
	}
	if !bytes.Equal(s.Bytes(), make([]byte, 32)) {
		t.Error("new buffer should be zero-filled")
	}

	if got := NewSecretBuffer(-1).Len(); got != 0 {
		t.Errorf("NewSecretBuffer(-1).Len() = %d, want 0", got)
	}
}

func TestSecretBuffer_FromBytesTakesOwnership(t *testing.T) {
	t.Parallel()
	raw := []byte{1, 2, 3, 4}
	s := SecretBufferFromBytes(raw)

	s.Destroy()

	if !bytes.Equal(raw, []byte{0, 0, 0, 0}) {
		t.Errorf("backing bytes = %v, want zeroed", raw)
	}
	if !s.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
	if s.Bytes() != nil {
		t.Error("Bytes() should be nil after Destroy")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Destroy, want 0", s.Len())
	}
}

func TestSecretBuffer_CopyLeavesSourceAlone(t *testing.T) {
	t.Parallel()
	raw := []byte{9, 8, 7}
	s := SecretBufferCopy(raw)
	s.Destroy()

	if !bytes.Equal(raw, []byte{9, 8, 7}) {
		t.Errorf("source = %v, want untouched", raw)
	}
}

func TestSecretBuffer_Clone(t *testing.T) {
	t.Parallel()
	s := SecretBufferCopy([]byte("secret"))
	c := s.Clone()

	if !s.Equal(c) {
		t.Fatal("clone should equal source")
	}

	c.Bytes()[0] = 'S'
	if s.Equal(c) {
		t.Error("clone should not share memory with source")
	}

	s.Destroy()
	if c.Destroyed() {
		t.Error("destroying source should not destroy clone")
	}
	if string(c.Bytes()) != "Secret" {
		t.Errorf("clone = %q, want %q", c.Bytes(), "Secret")
	}
}

func TestSecretBuffer_DestroyIdempotent(t *testing.T) {
	t.Parallel()
	s := NewSecretBuffer(8)
	s.Destroy()
	s.Destroy()

	var nilBuf *SecretBuffer
	nilBuf.Destroy()
	if nilBuf.Len() != 0 || nilBuf.Bytes() != nil {
		t.Error("nil buffer should behave as empty")
	}
}

func TestKeyPair_Destroy(t *testing.T) {
	t.Parallel()
	raw := []byte{0xAA, 0xBB}
	kp := &KeyPair{Secret: SecretBufferFromBytes(raw), Public: []byte{1}}
	kp.Destroy()

	if raw[0] != 0 || raw[1] != 0 {
		t.Errorf("secret = %x, want zeroed", raw)
	}
	if len(kp.Public) != 1 {
		t.Error("Destroy should not touch the public half")
	}

	var nilPair *KeyPair
	nilPair.Destroy()
}

func TestClampX25519(t *testing.T) {
	t.Parallel()
	s := SecretBufferCopy(bytes.Repeat([]byte{0xFF}, X25519KeySize))
	if err := ClampX25519(s); err != nil {
		t.Fatalf("ClampX25519() error = %v", err)
	}
	b := s.Bytes()
	if b[0] != 0xF8 {
		t.Errorf("b[0] = %#x, want 0xf8", b[0])
	}
	if b[31] != 0x7F {
		t.Errorf("b[31] = %#x, want 0x7f", b[31])
	}

	if err := ClampX25519(NewSecretBuffer(31)); err == nil {
		t.Error("ClampX25519() should reject a 31-byte secret")
	}
}
