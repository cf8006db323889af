package openpgp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

// signMessage writes data as a signed literal message.
func signMessage(t *testing.T, data []byte, keys []*PrivateKey, opts ...SignOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewSigner(NewMessage(&buf), keys, opts...)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	lit, err := NewLiteralWriter(s)
	if err != nil {
		t.Fatalf("NewLiteralWriter() error = %v", err)
	}
	if _, err := lit.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := lit.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return buf.Bytes()
}

// signDetached returns a binary detached signature over data.
func signDetached(t *testing.T, data []byte, keys []*PrivateKey, opts ...SignOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewSigner(NewMessage(&buf), keys, append([]SignOption{Detached()}, opts...)...)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	if _, err := s.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return buf.Bytes()
}

type signingAlgorithm struct {
	name string
	alg  crypto.PublicKeyAlgorithm
	opts []KeyOption
	slow bool
}

// key generates a signing key, skipping slow parameter sets in short mode.
func (a signingAlgorithm) key(t *testing.T) *PrivateKey {
	t.Helper()
	if a.slow && testing.Short() {
		t.Skipf("%s is slow", a.name)
	}
	return generateKey(t, a.alg, a.opts...)
}

var signingAlgorithms = []signingAlgorithm{
	{name: "ed25519 v4", alg: crypto.Ed25519},
	{name: "ed25519 v6", alg: crypto.Ed25519, opts: []KeyOption{WithKeyVersion(6)}},
	{name: "ed448", alg: crypto.Ed448},
	{name: "ecdsa p256", alg: crypto.ECDSA},
	{name: "ecdsa p384", alg: crypto.ECDSA, opts: []KeyOption{WithCurve(crypto.NISTP384)}},
	{name: "ecdsa secp256k1", alg: crypto.ECDSA, opts: []KeyOption{WithCurve(crypto.Secp256k1)}},
	{name: "ecdsa p256 v6", alg: crypto.ECDSA, opts: []KeyOption{WithKeyVersion(6)}},
	{name: "mldsa65 ed25519", alg: crypto.MLDSA65Ed25519},
	{name: "mldsa87 ed448", alg: crypto.MLDSA87Ed448},
	{name: "slhdsa 128s", alg: crypto.SLHDSA128s, slow: true},
	{name: "slhdsa 128f", alg: crypto.SLHDSA128f},
	{name: "slhdsa 256s", alg: crypto.SLHDSA256s, slow: true},
}

func TestSignVerify_Inline(t *testing.T) {
	data := []byte("The signed message body.")
	for _, tt := range signingAlgorithms {
		t.Run(tt.name, func(t *testing.T) {
			k := tt.key(t)
			msg := signMessage(t, data, []*PrivateKey{k})

			details, err := Decrypt(bytes.NewReader(msg), WithVerificationKeys(k.Public()))
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(details.Data, data) {
				t.Errorf("Data = %q, want %q", details.Data, data)
			}
			if !details.SignaturesValid() {
				t.Fatalf("Signatures = %+v, want valid", details.Signatures)
			}
			sig := details.Signatures[0]
			if sig.KeyID != k.KeyID() {
				t.Errorf("KeyID = %s, want %s", sig.KeyID, k.KeyID())
			}
			if sig.Algorithm != tt.alg {
				t.Errorf("Algorithm = %v, want %v", sig.Algorithm, tt.alg)
			}

			tampered := bytes.Clone(msg)
			i := bytes.Index(tampered, data)
			if i < 0 {
				t.Fatal("literal data not found in message")
			}
			tampered[i] ^= 0x20
			details, err = Decrypt(bytes.NewReader(tampered), WithVerificationKeys(k.Public()))
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if details.SignaturesValid() {
				t.Error("signature verified over modified data")
			}
		})
	}
}

func TestSignVerify_Detached(t *testing.T) {
	data := []byte("detached payload")
	for _, tt := range signingAlgorithms {
		t.Run(tt.name, func(t *testing.T) {
			k := tt.key(t)
			sig := signDetached(t, data, []*PrivateKey{k})

			results, err := VerifyDetached(bytes.NewReader(sig), bytes.NewReader(data), k.Public())
			if err != nil {
				t.Fatalf("VerifyDetached() error = %v", err)
			}
			if len(results) != 1 || !results[0].Valid {
				t.Fatalf("results = %+v, want one valid signature", results)
			}

			flipped := bytes.Clone(data)
			flipped[0] ^= 0x01
			results, err = VerifyDetached(bytes.NewReader(sig), bytes.NewReader(flipped), k.Public())
			if err != nil {
				t.Fatalf("VerifyDetached() error = %v", err)
			}
			if results[0].Valid {
				t.Error("signature verified over modified data")
			}
		})
	}
}

// signatureRegions locates the parts of a signature packet body: the
// unhashed subpacket area and the start of the algorithm-specific fields.
func signatureRegions(body []byte) (unhashedStart, unhashedEnd, fieldsStart int) {
	lenSize := 2
	if body[0] == 6 {
		lenSize = 4
	}
	readLen := func(off int) int {
		if lenSize == 4 {
			return int(binary.BigEndian.Uint32(body[off:]))
		}
		return int(binary.BigEndian.Uint16(body[off:]))
	}
	off := 4
	off += lenSize + readLen(off)
	n := readLen(off)
	off += lenSize
	unhashedStart, unhashedEnd = off, off+n
	off += n + 2
	if body[0] == 6 {
		off += 1 + int(body[off])
	}
	return unhashedStart, unhashedEnd, off
}

func TestVerifyDetached_TamperedSignature(t *testing.T) {
	data := []byte("detached payload")
	for _, tt := range signingAlgorithms {
		t.Run(tt.name, func(t *testing.T) {
			k := tt.key(t)
			sig := signDetached(t, data, []*PrivateKey{k})

			_, body, err := packet.NewReader(bytes.NewReader(sig)).Next()
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			hdr := len(sig) - len(body)
			unhashedStart, unhashedEnd, fieldsStart := signatureRegions(body)

			var offsets []int
			for i := 0; i < fieldsStart; i++ {
				// The v4 unhashed area holds only the issuer key ID, which
				// is not covered by the signature.
				if i >= unhashedStart && i < unhashedEnd {
					continue
				}
				offsets = append(offsets, i)
			}
			// Every byte of small fields and of the classical half of a
			// composite; large post-quantum signatures are sampled.
			step := 1
			if n := len(body) - fieldsStart; n > 512 {
				step = n / 64
			}
			for i := fieldsStart; i < len(body); {
				offsets = append(offsets, i)
				if i-fieldsStart < 128 {
					i++
				} else {
					i += step
				}
			}
			offsets = append(offsets, len(body)-1)

			for _, i := range offsets {
				tampered := bytes.Clone(sig)
				tampered[hdr+i] ^= 0x01
				results, err := VerifyDetached(bytes.NewReader(tampered), bytes.NewReader(data), k.Public())
				if err == nil && len(results) > 0 && results[0].Valid {
					t.Errorf("signature with body byte %d flipped still verifies", i)
				}
			}

			results, err := VerifyDetached(bytes.NewReader(sig), bytes.NewReader(data), k.Public())
			if err != nil || len(results) != 1 || !results[0].Valid {
				t.Fatalf("VerifyDetached(original) = %+v, %v; want one valid signature", results, err)
			}
		})
	}
}

func TestSignVerify_MultipleSigners(t *testing.T) {
	a := generateKey(t, crypto.Ed25519)
	b := generateKey(t, crypto.ECDSA)
	msg := signMessage(t, []byte("co-signed"), []*PrivateKey{a, b})

	var ops, sigs int
	pr := packet.NewReader(bytes.NewReader(msg))
	for {
		tag, _, err := pr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		switch tag {
		case packet.TagOnePassSignature:
			ops++
		case packet.TagSignature:
			sigs++
		}
	}
	if ops != 2 || sigs != 2 {
		t.Errorf("one-pass = %d, signatures = %d, want 2 and 2", ops, sigs)
	}

	details, err := Decrypt(bytes.NewReader(msg), WithVerificationKeys(a.Public(), b.Public()))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if len(details.Signatures) != 2 || !details.SignaturesValid() {
		t.Errorf("Signatures = %+v, want two valid", details.Signatures)
	}
}

func TestVerify_UnknownIssuer(t *testing.T) {
	k := generateKey(t, crypto.Ed25519)
	other := generateKey(t, crypto.Ed25519)
	sig := signDetached(t, []byte("data"), []*PrivateKey{k})

	results, err := VerifyDetached(bytes.NewReader(sig), strings.NewReader("data"), other.Public())
	if err != nil {
		t.Fatalf("VerifyDetached() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Valid {
		t.Error("signature should not verify with an unrelated key")
	}
	if !errors.Is(results[0].Err, ErrUnknownIssuer) {
		t.Errorf("Err = %v, want ErrUnknownIssuer", results[0].Err)
	}
}

func TestSign_TextMode(t *testing.T) {
	k := generateKey(t, crypto.Ed25519, WithKeyVersion(6))
	sig := signDetached(t, []byte("line one\nline two\n"), []*PrivateKey{k}, WithTextMode())

	for _, data := range []string{"line one\nline two\n", "line one\r\nline two\r\n"} {
		results, err := VerifyDetached(bytes.NewReader(sig), strings.NewReader(data), k.Public())
		if err != nil {
			t.Fatalf("VerifyDetached() error = %v", err)
		}
		if !results[0].Valid {
			t.Errorf("text signature did not verify over %q", data)
		}
	}
}

func TestTextCanonicalizer(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"lf", []string{"a\nb\n"}, "a\r\nb\r\n"},
		{"crlf", []string{"a\r\nb"}, "a\r\nb"},
		{"lone cr in the middle", []string{"a\rb"}, "a\r\nb"},
		{"lone cr at the end", []string{"a\r"}, "a\r\n"},
		{"crlf split across writes", []string{"a\r", "\nb"}, "a\r\nb"},
		{"lone cr split across writes", []string{"a\r", "b\r"}, "a\r\nb\r\n"},
		{"two crs", []string{"\r\r"}, "\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &textCanonicalizer{w: &buf}
			for _, chunk := range tt.chunks {
				if _, err := io.WriteString(c, chunk); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := c.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("canonical = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSign_TextModeTrailingCR(t *testing.T) {
	k := generateKey(t, crypto.Ed25519)
	sig := signDetached(t, []byte("line one\rline two\r"), []*PrivateKey{k}, WithTextMode())

	for _, data := range []string{"line one\rline two\r", "line one\r\nline two\r\n", "line one\nline two\n"} {
		results, err := VerifyDetached(bytes.NewReader(sig), strings.NewReader(data), k.Public())
		if err != nil {
			t.Fatalf("VerifyDetached() error = %v", err)
		}
		if !results[0].Valid {
			t.Errorf("text signature did not verify over %q", data)
		}
	}
}

func TestSign_Options(t *testing.T) {
	k := generateKey(t, crypto.Ed25519)
	recipient := generateKey(t, crypto.X25519)
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sig := signDetached(t, []byte("data"), []*PrivateKey{k},
		WithHash(crypto.SHA256),
		WithSignatureTime(created),
		WithIntendedRecipients(recipient.Public()),
	)
	results, err := VerifyDetached(bytes.NewReader(sig), strings.NewReader("data"), k.Public())
	if err != nil {
		t.Fatalf("VerifyDetached() error = %v", err)
	}
	r := results[0]
	if !r.Valid {
		t.Fatalf("result = %+v, want valid", r)
	}
	if r.Hash != crypto.SHA256 {
		t.Errorf("Hash = %v, want SHA256", r.Hash)
	}
	if !r.Created.Equal(created) {
		t.Errorf("Created = %v, want %v", r.Created, created)
	}
}

func TestNewSigner_Errors(t *testing.T) {
	enc := generateKey(t, crypto.X25519)
	destroyed := generateKey(t, crypto.Ed25519)
	destroyed.Destroy()
	ok := generateKey(t, crypto.Ed25519)

	tests := []struct {
		name string
		keys []*PrivateKey
		opts []SignOption
		want error
	}{
		{"no keys", nil, nil, ErrNoSigningKey},
		{"encryption-only key", []*PrivateKey{enc}, nil, ErrNoSigningKey},
		{"destroyed key", []*PrivateKey{destroyed}, nil, ErrNoSigningKey},
		{"sha1 rejected", []*PrivateKey{ok}, []SignOption{WithHash(crypto.SHA1)}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSigner(NewMessage(io.Discard), tt.keys, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewSigner() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignEncrypt_SignatureInsideEncryption(t *testing.T) {
	signer := generateKey(t, crypto.MLDSA65Ed25519)
	recipient := generateKey(t, crypto.MLKEM768X25519, WithKeyVersion(6))

	var buf bytes.Buffer
	enc, err := NewEncryptor(NewMessage(&buf), EncryptTo(recipient.Public()))
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	sig, err := NewSigner(enc, []*PrivateKey{signer}, WithIntendedRecipients(recipient.Public()))
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	lit, err := NewLiteralWriter(sig)
	if err != nil {
		t.Fatalf("NewLiteralWriter() error = %v", err)
	}
	if _, err := io.WriteString(lit, "post-quantum hello"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	// Finalize stage by stage, innermost first.
	for _, s := range []*Message{lit, sig, enc} {
		if err := s.FinalizeOne(); err != nil {
			t.Fatalf("%s FinalizeOne() error = %v", s.kind, err)
		}
	}

	details, err := Decrypt(&buf, WithDecryptionKeys(recipient), WithVerificationKeys(signer.Public()))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(details.Data) != "post-quantum hello" {
		t.Errorf("Data = %q", details.Data)
	}
	if !details.SignaturesValid() {
		t.Errorf("Signatures = %+v, want valid", details.Signatures)
	}
}
