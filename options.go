package openpgp

import (
	"io"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/s2k"
	"github.com/sirupsen/logrus"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// Profile selects the packet versions an encryptor produces.
type Profile int

const (
	// ProfileAuto uses ProfileRFC4880 unless a recipient requires RFC 9580.
	ProfileAuto Profile = iota
	// ProfileRFC4880 produces PKESK v3, SKESK v4 and SEIPD v1.
	ProfileRFC4880
	// ProfileRFC9580 produces PKESK v6, SKESK v6 and SEIPD v2.
	ProfileRFC9580
)

func (p Profile) String() string {
	switch p {
	case ProfileAuto:
		return "auto"
	case ProfileRFC4880:
		return "rfc4880"
	case ProfileRFC9580:
		return "rfc9580"
	}
	return "unknown"
}

// LiteralFormat is the format octet of a literal data packet.
type LiteralFormat byte

// Literal data formats.
const (
	FormatBinary LiteralFormat = 'b'
	FormatText   LiteralFormat = 't'
	FormatUTF8   LiteralFormat = 'u'
)

// ArmorKind selects the armor block type.
type ArmorKind int

// Armor block types.
const (
	ArmorMessage ArmorKind = iota
	ArmorSignature
	ArmorPublicKey
	ArmorPrivateKey
)

// BlockType returns the header label, for example "PGP MESSAGE".
func (k ArmorKind) BlockType() string {
	switch k {
	case ArmorSignature:
		return "PGP SIGNATURE"
	case ArmorPublicKey:
		return "PGP PUBLIC KEY BLOCK"
	case ArmorPrivateKey:
		return "PGP PRIVATE KEY BLOCK"
	}
	return "PGP MESSAGE"
}

const (
	defaultCipher    = crypto.AES256
	defaultAEAD      = crypto.AEADModeOCB
	defaultChunkByte = 12
	defaultHash      = crypto.SHA512
	maxChunkByte     = 16
)

// messageConfig holds configuration shared by every stage of a pipeline.
type messageConfig struct {
	logger  logrus.FieldLogger
	backend crypto.Provider
}

// armorConfig holds configuration for the armor stage.
type armorConfig struct {
	headers  map[string]string
	checksum bool
}

// encryptConfig holds configuration for the encryption stage.
type encryptConfig struct {
	recipients []*PublicKey
	passwords  [][]byte
	cipher     crypto.SymmetricAlgorithm
	aead       crypto.AEADMode
	profile    Profile
	chunkByte  int
	s2k        *s2k.Config
	padding    int
	flags      KeyFlags
}

// signConfig holds configuration for the signing stage.
type signConfig struct {
	hash       crypto.HashAlgorithm
	detached   bool
	text       bool
	recipients []*PublicKey
	created    time.Time
}

// literalConfig holds configuration for the literal data stage.
type literalConfig struct {
	format   LiteralFormat
	filename string
	modTime  time.Time
}

// keyConfig holds configuration for key generation and import.
type keyConfig struct {
	version int
	curve   crypto.Curve
	flags   KeyFlags
	created time.Time
	backend crypto.Provider
	dsaBits int
}

// readConfig holds configuration for Decrypt and VerifyDetached.
type readConfig struct {
	decryptionKeys   []*PrivateKey
	passwords        [][]byte
	verificationKeys []*PublicKey
	logger           logrus.FieldLogger
	backend          crypto.Provider
}

// MessageOption configures a pipeline.
type MessageOption func(*messageConfig)

// ArmorOption configures the armor stage.
type ArmorOption func(*armorConfig)

// EncryptOption configures the encryption stage.
type EncryptOption func(*encryptConfig)

// SignOption configures the signing stage.
type SignOption func(*signConfig)

// LiteralOption configures the literal data stage.
type LiteralOption func(*literalConfig)

// KeyOption configures key generation and import.
type KeyOption func(*keyConfig)

// ReadOption configures Decrypt and VerifyDetached.
type ReadOption func(*readConfig)

// WithLogger sets the logger used by every stage. The default discards
// all output.
func WithLogger(logger logrus.FieldLogger) MessageOption {
	return func(c *messageConfig) {
		c.logger = logger
	}
}

// WithBackend overrides the linked backend for a pipeline.
func WithBackend(p crypto.Provider) MessageOption {
	return func(c *messageConfig) {
		c.backend = p
	}
}

// WithArmorHeader adds an armor header line such as "Comment".
func WithArmorHeader(key, value string) ArmorOption {
	return func(c *armorConfig) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// WithoutArmorChecksum omits the CRC-24 line.
func WithoutArmorChecksum() ArmorOption {
	return func(c *armorConfig) {
		c.checksum = false
	}
}

// EncryptTo adds recipient keys. Keys that cannot encrypt are skipped.
func EncryptTo(keys ...*PublicKey) EncryptOption {
	return func(c *encryptConfig) {
		c.recipients = append(c.recipients, keys...)
	}
}

// EncryptWithPassword adds passwords that can decrypt the message.
func EncryptWithPassword(passwords ...[]byte) EncryptOption {
	return func(c *encryptConfig) {
		c.passwords = append(c.passwords, passwords...)
	}
}

// WithCipher sets the symmetric cipher. Default: AES-256.
func WithCipher(algo crypto.SymmetricAlgorithm) EncryptOption {
	return func(c *encryptConfig) {
		c.cipher = algo
	}
}

// WithAEAD sets the AEAD mode used by SEIPD v2 and SKESK v6.
// Default: OCB, or GCM when the backend lacks OCB.
func WithAEAD(mode crypto.AEADMode) EncryptOption {
	return func(c *encryptConfig) {
		c.aead = mode
	}
}

// WithProfile selects the packet versions.
func WithProfile(p Profile) EncryptOption {
	return func(c *encryptConfig) {
		c.profile = p
	}
}

// WithChunkSize sets the SEIPD v2 chunk size octet; chunks are
// 2^(n+6) bytes. Default: 12 (256 KiB).
func WithChunkSize(n int) EncryptOption {
	return func(c *encryptConfig) {
		c.chunkByte = n
	}
}

// WithS2K sets the string-to-key parameters for passwords.
// Default: iterated and salted SHA-256.
func WithS2K(cfg *s2k.Config) EncryptOption {
	return func(c *encryptConfig) {
		c.s2k = cfg
	}
}

// WithPadding appends a padding packet of n random bytes inside the
// encrypted data.
func WithPadding(n int) EncryptOption {
	return func(c *encryptConfig) {
		c.padding = n
	}
}

// ForStorage only encrypts to keys flagged for storage.
func ForStorage() EncryptOption {
	return func(c *encryptConfig) {
		c.flags |= FlagEncryptStorage
	}
}

// ForTransport only encrypts to keys flagged for communications.
func ForTransport() EncryptOption {
	return func(c *encryptConfig) {
		c.flags |= FlagEncryptCommunications
	}
}

// WithHash sets the signature hash algorithm. Default: SHA-512.
func WithHash(h crypto.HashAlgorithm) SignOption {
	return func(c *signConfig) {
		c.hash = h
	}
}

// Detached makes the signer emit only signature packets.
func Detached() SignOption {
	return func(c *signConfig) {
		c.detached = true
	}
}

// WithTextMode makes text signatures over CRLF-canonicalized data.
func WithTextMode() SignOption {
	return func(c *signConfig) {
		c.text = true
	}
}

// WithIntendedRecipients records the recipients in each signature.
func WithIntendedRecipients(keys ...*PublicKey) SignOption {
	return func(c *signConfig) {
		c.recipients = append(c.recipients, keys...)
	}
}

// WithSignatureTime sets the signature creation time. Default: now.
func WithSignatureTime(t time.Time) SignOption {
	return func(c *signConfig) {
		c.created = t
	}
}

// WithFormat sets the literal data format. Default: binary.
func WithFormat(f LiteralFormat) LiteralOption {
	return func(c *literalConfig) {
		c.format = f
	}
}

// WithFilename sets the literal data file name. Names longer than 255
// bytes are truncated at a UTF-8 character boundary.
func WithFilename(name string) LiteralOption {
	return func(c *literalConfig) {
		c.filename = name
	}
}

// WithModTime sets the literal data modification time. Times before 1970
// or after 2106-02-07 are rejected by NewLiteralWriter.
func WithModTime(t time.Time) LiteralOption {
	return func(c *literalConfig) {
		c.modTime = t
	}
}

// WithKeyVersion sets the key packet version, 4 or 6.
// Default: 4, or 6 for algorithms that require it.
func WithKeyVersion(v int) KeyOption {
	return func(c *keyConfig) {
		c.version = v
	}
}

// WithCurve sets the curve for ECDH and ECDSA keys. Default: NIST P-256.
func WithCurve(curve crypto.Curve) KeyOption {
	return func(c *keyConfig) {
		c.curve = curve
	}
}

// WithKeyFlags sets the key usage flags. Default: derived from the
// algorithm's capabilities.
func WithKeyFlags(f KeyFlags) KeyOption {
	return func(c *keyConfig) {
		c.flags = f
	}
}

// WithCreationTime sets the key creation time. Default: now.
func WithCreationTime(t time.Time) KeyOption {
	return func(c *keyConfig) {
		c.created = t
	}
}

// WithKeyBackend selects the backend used for generation or import checks.
func WithKeyBackend(p crypto.Provider) KeyOption {
	return func(c *keyConfig) {
		c.backend = p
	}
}

// WithDSABits sets the DSA modulus size. Default: 2048.
func WithDSABits(bits int) KeyOption {
	return func(c *keyConfig) {
		c.dsaBits = bits
	}
}

// WithDecryptionKeys sets the private keys tried against PKESK packets.
func WithDecryptionKeys(keys ...*PrivateKey) ReadOption {
	return func(c *readConfig) {
		c.decryptionKeys = append(c.decryptionKeys, keys...)
	}
}

// WithPasswords sets the passwords tried against SKESK packets.
func WithPasswords(passwords ...[]byte) ReadOption {
	return func(c *readConfig) {
		c.passwords = append(c.passwords, passwords...)
	}
}

// WithVerificationKeys sets the public keys used to check signatures.
func WithVerificationKeys(keys ...*PublicKey) ReadOption {
	return func(c *readConfig) {
		c.verificationKeys = append(c.verificationKeys, keys...)
	}
}

// WithReadLogger sets the logger used while reading.
func WithReadLogger(logger logrus.FieldLogger) ReadOption {
	return func(c *readConfig) {
		c.logger = logger
	}
}

// WithReadBackend overrides the linked backend while reading.
func WithReadBackend(p crypto.Provider) ReadOption {
	return func(c *readConfig) {
		c.backend = p
	}
}

// discardLogger returns a logger that drops every entry.
func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
