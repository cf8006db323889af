//go:build integration

package integration

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	gopenpgp "github.com/ProtonMail/go-crypto/openpgp"
	gopacket "github.com/ProtonMail/go-crypto/openpgp/packet"

	openpgp "github.com/vaultsandbox/openpgp-go"
	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

const password = "interop password"

func encryptWithPassword(t *testing.T, plaintext []byte, profile openpgp.Profile) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := openpgp.NewEncryptor(openpgp.NewMessage(&buf),
		openpgp.EncryptWithPassword([]byte(password)),
		openpgp.WithProfile(profile),
	)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	lit, err := openpgp.NewLiteralWriter(enc)
	if err != nil {
		t.Fatalf("NewLiteralWriter() error = %v", err)
	}
	if _, err := lit.Write(plaintext); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := lit.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return buf.Bytes()
}

func passwordPrompt() gopenpgp.PromptFunction {
	tried := false
	return func([]gopenpgp.Key, bool) ([]byte, error) {
		if tried {
			return nil, errors.New("password rejected")
		}
		tried = true
		return []byte(password), nil
	}
}

func TestGoCrypto_ReadsPasswordMessages(t *testing.T) {
	plaintext := bytes.Repeat([]byte("interop "), 10000)
	for _, profile := range []openpgp.Profile{openpgp.ProfileRFC4880, openpgp.ProfileRFC9580} {
		t.Run(profile.String(), func(t *testing.T) {
			msg := encryptWithPassword(t, plaintext, profile)
			md, err := gopenpgp.ReadMessage(bytes.NewReader(msg), gopenpgp.EntityList{}, passwordPrompt(), nil)
			if err != nil {
				t.Fatalf("ReadMessage() error = %v", err)
			}
			got, err := io.ReadAll(md.UnverifiedBody)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Error("go-crypto returned different plaintext")
			}
		})
	}
}

func TestGoCrypto_WritesPasswordMessages(t *testing.T) {
	tests := []struct {
		name        string
		config      *gopacket.Config
		wantVersion int
	}{
		{"seipd v1", nil, 1},
		{"seipd v2", &gopacket.Config{AEADConfig: &gopacket.AEADConfig{}}, 2},
	}
	plaintext := []byte("written by go-crypto")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := gopenpgp.SymmetricallyEncrypt(&buf, []byte(password), nil, tt.config)
			if err != nil {
				t.Fatalf("SymmetricallyEncrypt() error = %v", err)
			}
			if _, err := w.Write(plaintext); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			details, err := openpgp.Decrypt(&buf, openpgp.WithPasswords([]byte(password)))
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(details.Data, plaintext) {
				t.Errorf("Data = %q, want %q", details.Data, plaintext)
			}
			if details.SEIPDVersion != tt.wantVersion {
				t.Errorf("SEIPDVersion = %d, want %d", details.SEIPDVersion, tt.wantVersion)
			}
		})
	}
}

// goCryptoPublicKey parses our exported public key with go-crypto.
func goCryptoPublicKey(t *testing.T, k *openpgp.PublicKey) *gopacket.PublicKey {
	t.Helper()
	body, err := base64.RawURLEncoding.DecodeString(k.Export().PublicKey)
	if err != nil {
		t.Fatalf("DecodeString() error = %v", err)
	}
	var buf bytes.Buffer
	if err := packet.Serialize(&buf, packet.TagPublicKey, body); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	p, err := gopacket.Read(&buf)
	if err != nil {
		t.Fatalf("go-crypto Read() error = %v", err)
	}
	pk, ok := p.(*gopacket.PublicKey)
	if !ok {
		t.Fatalf("go-crypto Read() = %T, want *packet.PublicKey", p)
	}
	return pk
}

func TestGoCrypto_VerifiesDetachedSignatures(t *testing.T) {
	tests := []struct {
		name string
		alg  crypto.PublicKeyAlgorithm
		opts []openpgp.KeyOption
	}{
		{"ed25519 v4", crypto.Ed25519, nil},
		{"ed25519 v6", crypto.Ed25519, []openpgp.KeyOption{openpgp.WithKeyVersion(6)}},
		{"ed448 v6", crypto.Ed448, []openpgp.KeyOption{openpgp.WithKeyVersion(6)}},
		{"ecdsa p256", crypto.ECDSA, nil},
	}
	data := []byte("signed for go-crypto")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := openpgp.GenerateKey(tt.alg, tt.opts...)
			if err != nil {
				t.Fatalf("GenerateKey() error = %v", err)
			}
			defer k.Destroy()

			var sigBuf bytes.Buffer
			s, err := openpgp.NewSigner(openpgp.NewMessage(&sigBuf), []*openpgp.PrivateKey{k}, openpgp.Detached())
			if err != nil {
				t.Fatalf("NewSigner() error = %v", err)
			}
			if _, err := s.Write(data); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := s.Finalize(); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}

			p, err := gopacket.Read(&sigBuf)
			if err != nil {
				t.Fatalf("go-crypto Read() error = %v", err)
			}
			sig, ok := p.(*gopacket.Signature)
			if !ok {
				t.Fatalf("go-crypto Read() = %T, want *packet.Signature", p)
			}
			h, err := sig.PrepareVerify()
			if err != nil {
				t.Fatalf("PrepareVerify() error = %v", err)
			}
			h.Write(data)
			if err := goCryptoPublicKey(t, k.Public()).VerifySignature(h, sig); err != nil {
				t.Errorf("VerifySignature() error = %v", err)
			}
		})
	}
}

func TestGnuPG_DecryptsPasswordMessages(t *testing.T) {
	plaintext := []byte("hello gpg")
	msg := encryptWithPassword(t, plaintext, openpgp.ProfileRFC4880)
	out, err := runGPG(t, msg, "--passphrase", password, "--decrypt")
	if err != nil {
		t.Fatalf("gpg --decrypt error = %v", err)
	}
	if !bytes.Equal(out, plaintext) {
		t.Errorf("gpg output = %q, want %q", out, plaintext)
	}
}

func TestGnuPG_EncryptsPasswordMessages(t *testing.T) {
	plaintext := []byte("hello from gpg")
	msg, err := runGPG(t, plaintext, "--passphrase", password, "--rfc4880", "--compress-algo", "none", "--symmetric")
	if err != nil {
		t.Fatalf("gpg --symmetric error = %v", err)
	}
	details, err := openpgp.Decrypt(bytes.NewReader(msg), openpgp.WithPasswords([]byte(password)))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(details.Data, plaintext) {
		t.Errorf("Data = %q, want %q", details.Data, plaintext)
	}
}
