package openpgp

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrInvalidArgument", ErrInvalidArgument},
		{"ErrUnsupported", ErrUnsupported},
		{"ErrCryptographicFailure", ErrCryptographicFailure},
		{"ErrCollisionDetected", ErrCollisionDetected},
		{"ErrSequencing", ErrSequencing},
		{"ErrSinkIO", ErrSinkIO},
		{"ErrNoRecipients", ErrNoRecipients},
		{"ErrNoSigningKey", ErrNoSigningKey},
		{"ErrDecryptionFailed", ErrDecryptionFailed},
		{"ErrUnknownIssuer", ErrUnknownIssuer},
		{"ErrInvalidImportData", ErrInvalidImportData},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Error("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
	}
}

func TestSentinelHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no recipients is invalid argument", ErrNoRecipients, ErrInvalidArgument},
		{"no signing key is invalid argument", ErrNoSigningKey, ErrInvalidArgument},
		{"decryption failed is cryptographic failure", ErrDecryptionFailed, ErrCryptographicFailure},
		{"unsupported is invalid argument", ErrUnsupported, ErrInvalidArgument},
		{"shared with crypto package", ErrSequencing, crypto.ErrSequencing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.target)
			}
		})
	}
}

func TestSinkError(t *testing.T) {
	err := &SinkError{Err: io.ErrShortWrite}
	if err.Error() != "sink write failed: short write" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrSinkIO) {
		t.Error("SinkError should match ErrSinkIO")
	}
	if !errors.Is(err, io.ErrShortWrite) {
		t.Error("SinkError should unwrap to the sink's error")
	}
	var oe OpenPGPError
	if !errors.As(err, &oe) {
		t.Error("SinkError should implement OpenPGPError")
	}
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: "encrypt", Op: "finalize", Err: ErrSequencing}
	want := "encrypt stage finalize: " + ErrSequencing.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrSequencing) {
		t.Error("StageError should unwrap to its cause")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var se *StageError
	if !errors.As(wrapped, &se) || se.Stage != "encrypt" {
		t.Errorf("errors.As() stage = %v, want encrypt", se)
	}
}

func TestKeyError(t *testing.T) {
	k := &PublicKey{Version: 4, Algorithm: crypto.Ed25519, Material: make([]byte, 32)}
	err := keyError(k, ErrUnsupported)
	var ke *KeyError
	if !errors.As(err, &ke) {
		t.Fatalf("keyError() = %T, want *KeyError", err)
	}
	if ke.KeyID != k.KeyID() {
		t.Errorf("KeyID = %s, want %s", ke.KeyID, k.KeyID())
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("KeyError should unwrap to its cause")
	}
	if keyError(k, nil) != nil {
		t.Error("keyError(nil) should be nil")
	}
}

func TestMessageWrap_PreservesStageError(t *testing.T) {
	m := &Message{kind: kindSign}
	inner := &StageError{Stage: "literal", Op: "write", Err: ErrSequencing}
	if got := m.wrap("finalize", inner); got != error(inner) {
		t.Errorf("wrap() = %v, want the original StageError", got)
	}
	if m.wrap("write", nil) != nil {
		t.Error("wrap(nil) should be nil")
	}
	var se *StageError
	if !errors.As(m.wrap("write", ErrSinkIO), &se) || se.Stage != "sign" || se.Op != "write" {
		t.Errorf("wrap() = %v, want sign stage write error", se)
	}
}
