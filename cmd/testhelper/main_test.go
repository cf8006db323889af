package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openpgp "github.com/vaultsandbox/openpgp-go"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := Config{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	err := run(append([]string{"testhelper"}, args...), cfg)
	return stdout.String(), err
}

func writeKey(t *testing.T, dir, name, export string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(export), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Stdin != os.Stdin {
		t.Error("Stdin should be os.Stdin")
	}
	if cfg.Stdout != os.Stdout {
		t.Error("Stdout should be os.Stdout")
	}
	if cfg.Stderr != os.Stderr {
		t.Error("Stderr should be os.Stderr")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "", "frobnicate"); err == nil {
		t.Fatal("run() should fail for an unknown command")
	}
}

func TestRun_InvalidLogLevel(t *testing.T) {
	if _, err := runCLI(t, "", "--log-level", "loud", "backend"); err == nil {
		t.Fatal("run() should fail for an invalid log level")
	}
}

func TestKeygen(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"ed25519", []string{"--algorithm", "ed25519"}},
		{"x25519", []string{"--algorithm", "x25519"}},
		{"ecdh p256", []string{"--algorithm", "ecdh", "--curve", "p256"}},
		{"ed25519 v6", []string{"--algorithm", "ed25519", "--key-version", "6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "", append([]string{"keygen"}, tt.args...)...)
			if err != nil {
				t.Fatalf("keygen error = %v", err)
			}
			var e openpgp.ExportedKey
			if err := json.Unmarshal([]byte(out), &e); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if e.SecretKey == "" {
				t.Error("keygen output should contain the secret key")
			}
			if _, err := openpgp.ImportKey(&e); err != nil {
				t.Errorf("ImportKey() error = %v", err)
			}
		})
	}
}

func TestKeygen_UnknownAlgorithm(t *testing.T) {
	if _, err := runCLI(t, "", "keygen", "--algorithm", "rot13"); err == nil {
		t.Fatal("keygen should fail for an unknown algorithm")
	}
	if _, err := runCLI(t, "", "keygen", "--algorithm", "ecdh", "--curve", "p1"); err == nil {
		t.Fatal("keygen should fail for an unknown curve")
	}
}

func TestPublic(t *testing.T) {
	priv, err := runCLI(t, "", "keygen", "--algorithm", "x25519")
	if err != nil {
		t.Fatalf("keygen error = %v", err)
	}
	out, err := runCLI(t, priv, "public")
	if err != nil {
		t.Fatalf("public error = %v", err)
	}
	var e openpgp.ExportedKey
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.SecretKey != "" {
		t.Error("public output should not contain the secret key")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	dir := t.TempDir()
	recipient, err := runCLI(t, "", "keygen", "--algorithm", "x25519")
	if err != nil {
		t.Fatalf("keygen error = %v", err)
	}
	signer, err := runCLI(t, "", "keygen", "--algorithm", "ed25519")
	if err != nil {
		t.Fatalf("keygen error = %v", err)
	}
	recipientPath := writeKey(t, dir, "recipient.json", recipient)
	signerPath := writeKey(t, dir, "signer.json", signer)

	const plaintext = "Hello world."
	ciphertext, err := runCLI(t, plaintext, "encrypt",
		"--recipient", recipientPath,
		"--sign-key", signerPath,
	)
	if err != nil {
		t.Fatalf("encrypt error = %v", err)
	}
	if !strings.HasPrefix(ciphertext, "-----BEGIN PGP MESSAGE-----") {
		t.Fatalf("encrypt output is not armored: %q", ciphertext)
	}

	got, err := runCLI(t, ciphertext, "decrypt",
		"--key", recipientPath,
		"--verify-key", signerPath,
	)
	if err != nil {
		t.Fatalf("decrypt error = %v", err)
	}
	if got != plaintext {
		t.Errorf("decrypt = %q, want %q", got, plaintext)
	}
}

func TestEncryptDecrypt_Password(t *testing.T) {
	const plaintext = "secret note"
	ciphertext, err := runCLI(t, plaintext, "encrypt", "--password", "hunter2", "--profile", "rfc9580")
	if err != nil {
		t.Fatalf("encrypt error = %v", err)
	}
	got, err := runCLI(t, ciphertext, "decrypt", "--password", "hunter2")
	if err != nil {
		t.Fatalf("decrypt error = %v", err)
	}
	if got != plaintext {
		t.Errorf("decrypt = %q, want %q", got, plaintext)
	}
	if _, err := runCLI(t, ciphertext, "decrypt", "--password", "wrong"); err == nil {
		t.Error("decrypt should fail with the wrong password")
	}
}

func TestEncrypt_NoRecipients(t *testing.T) {
	if _, err := runCLI(t, "data", "encrypt"); err == nil {
		t.Fatal("encrypt should fail without recipients or passwords")
	}
}

func TestSignVerify_Detached(t *testing.T) {
	dir := t.TempDir()
	key, err := runCLI(t, "", "keygen", "--algorithm", "ed25519")
	if err != nil {
		t.Fatalf("keygen error = %v", err)
	}
	keyPath := writeKey(t, dir, "key.json", key)

	const data = "signed content"
	sig, err := runCLI(t, data, "sign", "--key", keyPath, "--detached")
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	sigPath := writeKey(t, dir, "data.sig", sig)

	out, err := runCLI(t, data, "verify", "--key", keyPath, "--signature", sigPath)
	if err != nil {
		t.Fatalf("verify error = %v", err)
	}
	var res VerifyOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !res.Valid || len(res.Signatures) != 1 {
		t.Errorf("verify = %+v, want one valid signature", res)
	}

	_, err = runCLI(t, data+"!", "verify", "--key", keyPath, "--signature", sigPath)
	if !errors.Is(err, errVerificationFailed) {
		t.Errorf("verify of modified data error = %v, want errVerificationFailed", err)
	}
	if code := exitCode(err); code != 1 {
		t.Errorf("exitCode() = %d, want 1", code)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"bad signature", errVerificationFailed, 1},
		{"wrapped bad signature", fmt.Errorf("verify: %w", errVerificationFailed), 1},
		{"other failure", errors.New("read key: no such file"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBackend(t *testing.T) {
	out, err := runCLI(t, "", "backend")
	if err != nil {
		t.Fatalf("backend error = %v", err)
	}
	var res BackendOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if res.Name == "" {
		t.Error("backend name should not be empty")
	}
	if !res.Algorithms["ed25519"] {
		t.Error("every backend should support ed25519")
	}
}

func TestConfigFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := runCLI(t, "", "--config", path, "backend"); err != nil {
		t.Fatalf("run() with a missing config file error = %v", err)
	}
}
