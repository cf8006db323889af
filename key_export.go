package openpgp

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/backend"
)

// ExportVersion is the current export format version.
const ExportVersion = 1

// ExportedKey contains everything needed to restore a key.
// WARNING: when SecretKey is set this contains private key material - handle securely.
type ExportedKey struct {
	// Version is the export format version. MUST be 1.
	Version int `json:"version"`
	// PublicKey is the public key packet body (base64url).
	PublicKey string `json:"publicKey"`
	// SecretKey is the secret key material (base64url). Composite keys store
	// the classical secret followed by the post-quantum seed.
	SecretKey string `json:"secretKey,omitempty"`
	// Flags are the key usage flags.
	Flags KeyFlags `json:"flags"`
	// Fingerprint is the key fingerprint in hex. It is checked on import.
	Fingerprint string `json:"fingerprint"`
	// ExportedAt is the export timestamp. Informational only.
	ExportedAt time.Time `json:"exportedAt"`
}

// Export returns exportable public key data.
func (k *PublicKey) Export() *ExportedKey {
	return &ExportedKey{
		Version:     ExportVersion,
		PublicKey:   base64.RawURLEncoding.EncodeToString(k.serializeBody()),
		Flags:       k.Flags,
		Fingerprint: k.FingerprintHex(),
		ExportedAt:  time.Now().UTC(),
	}
}

// Export returns exportable key data including the secret key material.
func (k *PrivateKey) Export() *ExportedKey {
	e := k.PublicKey.Export()
	secret := append(bytes.Clone(k.secret.Bytes()), k.pqSecret.Bytes()...)
	e.SecretKey = base64.RawURLEncoding.EncodeToString(secret)
	crypto.Zeroize(secret)
	return e
}

// Validate checks that the exported data is well formed. It does not check
// that the secret key matches the public key; ImportKey does that.
func (e *ExportedKey) Validate() error {
	if e.Version != ExportVersion {
		return fmt.Errorf("%w: unsupported version %d, expected %d", ErrInvalidImportData, e.Version, ExportVersion)
	}
	if e.PublicKey == "" {
		return fmt.Errorf("%w: publicKey is required", ErrInvalidImportData)
	}
	if _, err := e.publicKey(); err != nil {
		return err
	}
	if e.SecretKey != "" {
		if _, err := decodeBase64(e.SecretKey); err != nil {
			return fmt.Errorf("%w: invalid secretKey encoding", ErrInvalidImportData)
		}
	}
	return nil
}

func (e *ExportedKey) publicKey() (*PublicKey, error) {
	body, err := decodeBase64(e.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid publicKey encoding", ErrInvalidImportData)
	}
	k, err := parsePublicKeyBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	k.Flags = e.Flags
	if e.Fingerprint != "" && !strings.EqualFold(e.Fingerprint, hex.EncodeToString(k.Fingerprint())) {
		return nil, fmt.Errorf("%w: fingerprint mismatch", ErrInvalidImportData)
	}
	return k, nil
}

// ImportPublicKey restores a public key from exported data.
func ImportPublicKey(e *ExportedKey) (*PublicKey, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e.publicKey()
}

// ImportKey restores a key pair from exported data. The secret material is
// checked against the public key with the backend selected by
// WithKeyBackend, or the linked backend.
func ImportKey(e *ExportedKey, opts ...KeyOption) (*PrivateKey, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.SecretKey == "" {
		return nil, fmt.Errorf("%w: secretKey is required", ErrInvalidImportData)
	}
	cfg := keyConfig{backend: backend.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	pub, err := e.publicKey()
	if err != nil {
		return nil, err
	}
	raw, err := decodeBase64(e.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid secretKey encoding", ErrInvalidImportData)
	}
	k := &PrivateKey{PublicKey: *pub}
	if c, ok := composites[pub.Algorithm]; ok {
		eccSize := c.curve.ScalarSize()
		if len(raw) != eccSize+c.pq.SecretSize() {
			crypto.Zeroize(raw)
			return nil, fmt.Errorf("%w: secretKey size %d, expected %d", ErrInvalidImportData, len(raw), eccSize+c.pq.SecretSize())
		}
		k.secret = crypto.SecretBufferCopy(raw[:eccSize])
		k.pqSecret = crypto.SecretBufferCopy(raw[eccSize:])
		crypto.Zeroize(raw)
	} else {
		k.secret = crypto.SecretBufferFromBytes(raw)
	}

	if !cfg.backend.SupportsAlgo(pub.Algorithm) {
		k.Destroy()
		return nil, fmt.Errorf("%w: %v with the %s backend", ErrUnsupported, pub.Algorithm, cfg.backend.Name())
	}
	if err := checkSecret(cfg.backend, k); err != nil {
		k.Destroy()
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	return k, nil
}

// ExportKeyToFile writes exported key data to a JSON file with secure
// permissions (0600).
func ExportKeyToFile(e *ExportedKey, filePath string) error {
	if e == nil {
		return fmt.Errorf("%w: exported key is nil", ErrInvalidArgument)
	}
	jsonData, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key data: %w", err) //coverage:ignore
	}
	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ReadExportedKeyFile reads exported key data from a JSON file and validates
// it.
func ReadExportedKeyFile(filePath string) (*ExportedKey, error) {
	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var e ExportedKey
	if err := json.Unmarshal(jsonData, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// decodeBase64 accepts base64url or standard base64, with or without
// padding.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid base64", ErrInvalidArgument)
}
