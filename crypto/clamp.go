package crypto

import "fmt"

// ClampX25519 applies the RFC 7748 clamping to an X25519 secret in place.
// OpenPGP stores X25519 secrets clamped, while some libraries clamp
// internally and accept either form.
func ClampX25519(secret *SecretBuffer) error {
	b := secret.Bytes()
	if len(b) != X25519KeySize {
		return fmt.Errorf("%w: X25519 secret is %d bytes, want %d", ErrInvalidArgument, len(b), X25519KeySize)
	}
	b[0] &= 248
	b[31] &= 127
	b[31] |= 64
	return nil
}
