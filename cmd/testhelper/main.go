// Command testhelper is the interoperability CLI used by the integration
// tests. It generates keys and encrypts, decrypts, signs and verifies
// messages on stdin and stdout.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	openpgp "github.com/vaultsandbox/openpgp-go"
	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/backend"
)

// envPrefix is the prefix of environment variables overriding flags, for
// example OPENPGP_LOG_LEVEL.
const envPrefix = "OPENPGP"

// Config holds the standard streams used by the CLI.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config bound to the process streams.
func DefaultConfig() Config {
	return Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// app carries the state shared by all commands of one invocation.
type app struct {
	cfg    Config
	v      *viper.Viper
	logger *logrus.Logger
}

func run(args []string, cfg Config) error {
	a := &app{cfg: cfg, v: newViper()}
	root := a.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)
	return root.Execute()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "testhelper",
		Short:         "OpenPGP interoperability helper",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := a.readConfigFile(); err != nil {
				return err
			}
			logger, err := newLogger(a.v.GetString("log-level"), a.cfg.Stderr)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "optional YAML config file")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.keygenCmd(),
		a.publicCmd(),
		a.encryptCmd(),
		a.decryptCmd(),
		a.signCmd(),
		a.verifyCmd(),
		a.backendCmd(),
	)
	return root
}

// readConfigFile merges the optional config file. A missing file is not an
// error.
func (a *app) readConfigFile() error {
	path := a.v.GetString("config")
	if path == "" {
		return nil
	}
	a.v.SetConfigFile(path)
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	return l, nil
}

var algorithms = map[string]crypto.PublicKeyAlgorithm{
	"x25519":          crypto.X25519,
	"x448":            crypto.X448,
	"ed25519":         crypto.Ed25519,
	"ed448":           crypto.Ed448,
	"ecdh":            crypto.ECDH,
	"ecdsa":           crypto.ECDSA,
	"dsa":             crypto.DSA,
	"elgamal":         crypto.ElGamal,
	"mlkem768-x25519": crypto.MLKEM768X25519,
	"mlkem1024-x448":  crypto.MLKEM1024X448,
	"mldsa65-ed25519": crypto.MLDSA65Ed25519,
	"mldsa87-ed448":   crypto.MLDSA87Ed448,
	"slhdsa-128s":     crypto.SLHDSA128s,
	"slhdsa-128f":     crypto.SLHDSA128f,
	"slhdsa-256s":     crypto.SLHDSA256s,
}

var curves = map[string]crypto.Curve{
	"p256":          crypto.NISTP256,
	"p384":          crypto.NISTP384,
	"p521":          crypto.NISTP521,
	"brainpoolp256": crypto.BrainpoolP256,
	"brainpoolp384": crypto.BrainpoolP384,
	"brainpoolp512": crypto.BrainpoolP512,
	"secp256k1":     crypto.Secp256k1,
}

var profiles = map[string]openpgp.Profile{
	"auto":    openpgp.ProfileAuto,
	"rfc4880": openpgp.ProfileRFC4880,
	"rfc9580": openpgp.ProfileRFC9580,
}

func (a *app) keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key and print it as export JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := strings.ToLower(a.v.GetString("algorithm"))
			alg, ok := algorithms[name]
			if !ok {
				return fmt.Errorf("unknown algorithm %q", name)
			}
			opts := []openpgp.KeyOption{openpgp.WithKeyVersion(a.v.GetInt("key-version"))}
			if c := a.v.GetString("curve"); c != "" {
				curve, ok := curves[strings.ToLower(c)]
				if !ok {
					return fmt.Errorf("unknown curve %q", c)
				}
				opts = append(opts, openpgp.WithCurve(curve))
			}
			key, err := openpgp.GenerateKey(alg, opts...)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			defer key.Destroy()
			a.logger.WithFields(logrus.Fields{
				"algorithm":   key.Algorithm,
				"fingerprint": key.FingerprintHex(),
			}).Info("generated key")
			return writeJSON(a.cfg.Stdout, key.Export())
		},
	}
	cmd.Flags().String("algorithm", "ed25519", "public key algorithm")
	cmd.Flags().Int("key-version", 0, "key version (4 or 6, 0 for the algorithm default)")
	cmd.Flags().String("curve", "", "curve for ecdh and ecdsa keys")
	return cmd
}

func (a *app) publicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "public",
		Short: "Strip the secret key from export JSON on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var e openpgp.ExportedKey
			if err := json.NewDecoder(a.cfg.Stdin).Decode(&e); err != nil {
				return fmt.Errorf("parse export: %w", err)
			}
			pub, err := openpgp.ImportPublicKey(&e)
			if err != nil {
				return err
			}
			return writeJSON(a.cfg.Stdout, pub.Export())
		},
	}
	return cmd
}

func (a *app) encryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt stdin to recipients and passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []openpgp.EncryptOption
			for _, path := range a.v.GetStringSlice("recipient") {
				k, err := readPublicKey(path)
				if err != nil {
					return err
				}
				opts = append(opts, openpgp.EncryptTo(k))
			}
			for _, pw := range a.v.GetStringSlice("password") {
				opts = append(opts, openpgp.EncryptWithPassword([]byte(pw)))
			}
			profile, ok := profiles[strings.ToLower(a.v.GetString("profile"))]
			if !ok {
				return fmt.Errorf("unknown profile %q", a.v.GetString("profile"))
			}
			opts = append(opts, openpgp.WithProfile(profile))

			signers, err := readPrivateKeys(a.v.GetStringSlice("sign-key"))
			if err != nil {
				return err
			}
			defer destroyAll(signers)

			msg := openpgp.NewMessage(a.cfg.Stdout, openpgp.WithLogger(a.logger))
			outer := msg
			if a.v.GetBool("armor") {
				if outer, err = openpgp.NewArmorer(outer, openpgp.ArmorMessage); err != nil {
					return err
				}
			}
			if outer, err = openpgp.NewEncryptor(outer, opts...); err != nil {
				msg.Abort()
				return err
			}
			if len(signers) > 0 {
				if outer, err = openpgp.NewSigner(outer, signers); err != nil {
					msg.Abort()
					return err
				}
			}
			return a.writeLiteral(outer)
		},
	}
	cmd.Flags().StringSlice("recipient", nil, "recipient key export file (repeatable)")
	cmd.Flags().StringSlice("password", nil, "password (repeatable)")
	cmd.Flags().StringSlice("sign-key", nil, "signing key export file (repeatable)")
	cmd.Flags().String("profile", "auto", "packet profile (auto, rfc4880, rfc9580)")
	cmd.Flags().String("filename", "", "literal data file name")
	cmd.Flags().Bool("armor", true, "ASCII armor the output")
	return cmd
}

// writeLiteral copies stdin into a literal stage inside outer and
// finalizes the whole pipeline.
func (a *app) writeLiteral(outer *openpgp.Message) error {
	lit, err := openpgp.NewLiteralWriter(outer, openpgp.WithFilename(a.v.GetString("filename")))
	if err != nil {
		outer.Abort()
		return err
	}
	if _, err := io.Copy(lit, a.cfg.Stdin); err != nil {
		lit.Abort()
		return err
	}
	return lit.Finalize()
}

func (a *app) decryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a message on stdin and print the plaintext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := readPrivateKeys(a.v.GetStringSlice("key"))
			if err != nil {
				return err
			}
			defer destroyAll(keys)
			verifiers, err := readPublicKeys(a.v.GetStringSlice("verify-key"))
			if err != nil {
				return err
			}
			opts := []openpgp.ReadOption{
				openpgp.WithDecryptionKeys(keys...),
				openpgp.WithVerificationKeys(verifiers...),
				openpgp.WithReadLogger(a.logger),
			}
			for _, pw := range a.v.GetStringSlice("password") {
				opts = append(opts, openpgp.WithPasswords([]byte(pw)))
			}
			details, err := openpgp.Decrypt(a.cfg.Stdin, opts...)
			if err != nil {
				return err
			}
			for _, s := range details.Signatures {
				a.logger.WithFields(logrus.Fields{
					"key":   s.KeyID,
					"valid": s.Valid,
				}).Info("signature")
			}
			if len(verifiers) > 0 && !details.SignaturesValid() {
				return errVerificationFailed
			}
			_, err = a.cfg.Stdout.Write(details.Data)
			return err
		},
	}
	cmd.Flags().StringSlice("key", nil, "decryption key export file (repeatable)")
	cmd.Flags().StringSlice("password", nil, "password (repeatable)")
	cmd.Flags().StringSlice("verify-key", nil, "verification key export file (repeatable)")
	return cmd
}

func (a *app) signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := readPrivateKeys(a.v.GetStringSlice("key"))
			if err != nil {
				return err
			}
			defer destroyAll(keys)
			detached := a.v.GetBool("detached")

			msg := openpgp.NewMessage(a.cfg.Stdout, openpgp.WithLogger(a.logger))
			outer := msg
			if a.v.GetBool("armor") {
				kind := openpgp.ArmorMessage
				if detached {
					kind = openpgp.ArmorSignature
				}
				if outer, err = openpgp.NewArmorer(outer, kind); err != nil {
					return err
				}
			}
			var signOpts []openpgp.SignOption
			if detached {
				signOpts = append(signOpts, openpgp.Detached())
			}
			if a.v.GetBool("text") {
				signOpts = append(signOpts, openpgp.WithTextMode())
			}
			signer, err := openpgp.NewSigner(outer, keys, signOpts...)
			if err != nil {
				msg.Abort()
				return err
			}
			if !detached {
				return a.writeLiteral(signer)
			}
			if _, err := io.Copy(signer, a.cfg.Stdin); err != nil {
				signer.Abort()
				return err
			}
			return signer.Finalize()
		},
	}
	cmd.Flags().StringSlice("key", nil, "signing key export file (repeatable)")
	cmd.Flags().Bool("detached", false, "write a detached signature")
	cmd.Flags().Bool("text", false, "make a text signature")
	cmd.Flags().String("filename", "", "literal data file name")
	cmd.Flags().Bool("armor", true, "ASCII armor the output")
	return cmd
}

// VerifyOutput is the JSON result of the verify command.
type VerifyOutput struct {
	Valid      bool              `json:"valid"`
	Signatures []SignatureOutput `json:"signatures"`
}

// SignatureOutput describes one checked signature.
type SignatureOutput struct {
	KeyID string `json:"keyId"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a detached signature over stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := readPublicKeys(a.v.GetStringSlice("key"))
			if err != nil {
				return err
			}
			sig, err := os.Open(a.v.GetString("signature"))
			if err != nil {
				return fmt.Errorf("open signature: %w", err)
			}
			defer sig.Close()
			results, err := openpgp.VerifyDetached(sig, a.cfg.Stdin, keys...)
			if err != nil {
				return err
			}
			out := VerifyOutput{Valid: len(results) > 0}
			for _, r := range results {
				so := SignatureOutput{KeyID: r.KeyID.String(), Valid: r.Valid}
				if r.Err != nil {
					so.Error = r.Err.Error()
				}
				out.Valid = out.Valid && r.Valid
				out.Signatures = append(out.Signatures, so)
			}
			if err := writeJSON(a.cfg.Stdout, out); err != nil {
				return err
			}
			if !out.Valid {
				return errVerificationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("key", nil, "verification key export file (repeatable)")
	cmd.Flags().String("signature", "", "detached signature file")
	return cmd
}

// BackendOutput is the JSON result of the backend command.
type BackendOutput struct {
	Name       string          `json:"name"`
	Algorithms map[string]bool `json:"algorithms"`
}

func (a *app) backendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Print the linked backend and its algorithm support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := backend.Default()
			out := BackendOutput{Name: p.Name(), Algorithms: make(map[string]bool)}
			for name, alg := range algorithms {
				out.Algorithms[name] = p.SupportsAlgo(alg)
			}
			return writeJSON(a.cfg.Stdout, out)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readPublicKey(path string) (*openpgp.PublicKey, error) {
	e, err := openpgp.ReadExportedKeyFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	return openpgp.ImportPublicKey(e)
}

func readPublicKeys(paths []string) ([]*openpgp.PublicKey, error) {
	var keys []*openpgp.PublicKey
	for _, path := range paths {
		k, err := readPublicKey(path)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func readPrivateKeys(paths []string) ([]*openpgp.PrivateKey, error) {
	var keys []*openpgp.PrivateKey
	for _, path := range paths {
		e, err := openpgp.ReadExportedKeyFile(path)
		if err != nil {
			destroyAll(keys)
			return nil, fmt.Errorf("read key %s: %w", path, err)
		}
		k, err := openpgp.ImportKey(e)
		if err != nil {
			destroyAll(keys)
			return nil, fmt.Errorf("import key %s: %w", path, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func destroyAll(keys []*openpgp.PrivateKey) {
	for _, k := range keys {
		k.Destroy()
	}
}

// errVerificationFailed is returned when a signature does not verify.
var errVerificationFailed = errors.New("signature verification failed")

// exitCode maps a run error to the process exit status, following gpg: 1
// for a bad signature and 2 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errVerificationFailed):
		return 1
	default:
		return 2
	}
}
