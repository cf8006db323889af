package backend

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/backend/native"
	"github.com/vaultsandbox/openpgp-go/internal/backend/software"
)

func TestDefault(t *testing.T) {
	p := Default()
	if p == nil {
		t.Fatal("Default() returned nil")
	}
	if p.Name() != (Active{}).Name() {
		t.Errorf("Default().Name() = %q, want %q", p.Name(), (Active{}).Name())
	}
	buf := make([]byte, 32)
	if err := p.Random(buf); err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	if bytes.Equal(buf, make([]byte, 32)) {
		t.Error("Random() left the buffer zeroed")
	}
}

// Both backends must agree on every algorithm they share.
func TestInterop(t *testing.T) {
	sw := software.Backend{}
	nt := native.Backend{}
	digest := sha256.Sum256([]byte("interop"))

	pairs := []struct {
		name     string
		from, to crypto.Provider
	}{
		{"software to native", sw, nt},
		{"native to software", nt, sw},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			t.Run("X25519", func(t *testing.T) {
				alice, err := p.from.DHGenerate(crypto.Curve25519)
				if err != nil {
					t.Fatalf("DHGenerate() error = %v", err)
				}
				bob, err := p.to.DHGenerate(crypto.Curve25519)
				if err != nil {
					t.Fatalf("DHGenerate() error = %v", err)
				}
				pub, err := p.to.DHDerivePublic(crypto.Curve25519, alice.Secret)
				if err != nil {
					t.Fatalf("DHDerivePublic() error = %v", err)
				}
				if !bytes.Equal(pub, alice.Public) {
					t.Error("backends derive different X25519 public keys")
				}
				s1, err := p.from.DHShared(crypto.Curve25519, alice.Secret, bob.Public)
				if err != nil {
					t.Fatalf("DHShared() error = %v", err)
				}
				s2, err := p.to.DHShared(crypto.Curve25519, bob.Secret, alice.Public)
				if err != nil {
					t.Fatalf("DHShared() error = %v", err)
				}
				if !s1.Equal(s2) {
					t.Error("shared secrets differ")
				}
			})

			t.Run("Ed25519", func(t *testing.T) {
				kp, err := p.from.EdDSAGenerate(crypto.CurveEd25519)
				if err != nil {
					t.Fatalf("EdDSAGenerate() error = %v", err)
				}
				sig, err := p.from.EdDSASign(crypto.CurveEd25519, kp.Secret, digest[:])
				if err != nil {
					t.Fatalf("EdDSASign() error = %v", err)
				}
				ok, err := p.to.EdDSAVerify(crypto.CurveEd25519, kp.Public, digest[:], sig)
				if err != nil || !ok {
					t.Errorf("EdDSAVerify() = %v, %v; want true, nil", ok, err)
				}
			})

			t.Run("ECDSA P-256", func(t *testing.T) {
				kp, err := p.from.ECDSAGenerate(crypto.NISTP256)
				if err != nil {
					t.Fatalf("ECDSAGenerate() error = %v", err)
				}
				r, s, err := p.from.ECDSASign(crypto.NISTP256, kp.Secret, digest[:])
				if err != nil {
					t.Fatalf("ECDSASign() error = %v", err)
				}
				ok, err := p.to.ECDSAVerify(crypto.NISTP256, kp.Public, digest[:], r, s)
				if err != nil || !ok {
					t.Errorf("ECDSAVerify() = %v, %v; want true, nil", ok, err)
				}
			})

			t.Run("ML-KEM-768", func(t *testing.T) {
				kp, err := p.to.MLKEMGenerate(crypto.MLKEM768)
				if err != nil {
					t.Fatalf("MLKEMGenerate() error = %v", err)
				}
				pub, err := p.from.MLKEMDerivePublic(crypto.MLKEM768, kp.Secret)
				if err != nil {
					t.Fatalf("MLKEMDerivePublic() error = %v", err)
				}
				if !bytes.Equal(pub, kp.Public) {
					t.Error("backends expand the ML-KEM seed differently")
				}
				ct, shared, err := p.from.MLKEMEncapsulate(crypto.MLKEM768, kp.Public)
				if err != nil {
					t.Fatalf("MLKEMEncapsulate() error = %v", err)
				}
				got, err := p.to.MLKEMDecapsulate(crypto.MLKEM768, kp.Secret, ct)
				if err != nil {
					t.Fatalf("MLKEMDecapsulate() error = %v", err)
				}
				if !got.Equal(shared) {
					t.Error("decapsulated key does not match")
				}
			})

			t.Run("AES-256 CFB", func(t *testing.T) {
				key := crypto.NewSecretBuffer(32)
				if err := p.from.Random(key.Bytes()); err != nil {
					t.Fatal(err)
				}
				iv := make([]byte, 16)
				msg := []byte("cross-backend ciphertext")

				enc, err := p.from.Encryptor(crypto.AES256, crypto.ModeCFB, key, iv)
				if err != nil {
					t.Fatalf("Encryptor() error = %v", err)
				}
				ct := make([]byte, len(msg))
				if err := enc.Encrypt(ct, msg); err != nil {
					t.Fatalf("Encrypt() error = %v", err)
				}
				dec, err := p.to.Decryptor(crypto.AES256, crypto.ModeCFB, key, iv)
				if err != nil {
					t.Fatalf("Decryptor() error = %v", err)
				}
				pt := make([]byte, len(ct))
				if err := dec.Decrypt(pt, ct); err != nil {
					t.Fatalf("Decrypt() error = %v", err)
				}
				if !bytes.Equal(pt, msg) {
					t.Errorf("decrypted = %q, want %q", pt, msg)
				}
			})

			t.Run("AES-128 GCM", func(t *testing.T) {
				key := crypto.NewSecretBuffer(16)
				if err := p.from.Random(key.Bytes()); err != nil {
					t.Fatal(err)
				}
				sealer, err := p.from.AEAD(crypto.AES128, crypto.AEADModeGCM, key)
				if err != nil {
					t.Fatalf("AEAD() error = %v", err)
				}
				opener, err := p.to.AEAD(crypto.AES128, crypto.AEADModeGCM, key)
				if err != nil {
					t.Fatalf("AEAD() error = %v", err)
				}
				nonce := make([]byte, sealer.NonceSize())
				sealed := sealer.Seal(nil, nonce, []byte("chunk"), nil)
				opened, err := opener.Open(nil, nonce, sealed, nil)
				if err != nil {
					t.Fatalf("Open() error = %v", err)
				}
				if string(opened) != "chunk" {
					t.Errorf("opened = %q, want %q", opened, "chunk")
				}
			})
		})
	}
}

func TestInterop_HKDF(t *testing.T) {
	ikm := crypto.SecretBufferCopy([]byte("input keying material"))
	a := crypto.NewSecretBuffer(64)
	b := crypto.NewSecretBuffer(64)
	if err := (software.Backend{}).HKDFSHA512(ikm, []byte("salt"), []byte("info"), a); err != nil {
		t.Fatalf("HKDFSHA512() error = %v", err)
	}
	if err := (native.Backend{}).HKDFSHA512(ikm, []byte("salt"), []byte("info"), b); err != nil {
		t.Fatalf("HKDFSHA512() error = %v", err)
	}
	if !a.Equal(b) {
		t.Error("backends derive different HKDF-SHA512 output")
	}
}
