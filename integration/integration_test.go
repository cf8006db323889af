//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"testing"

	"github.com/joho/godotenv"
)

var gpgPath string

func TestMain(m *testing.M) {
	// Load .env file if it exists (won't error if missing)
	if err := godotenv.Load("../.env"); err != nil {
		os.Stderr.WriteString("Note: .env file not found at project root\n")
	}

	gpgPath = os.Getenv("OPENPGP_GPG")
	if gpgPath == "" {
		if p, err := exec.LookPath("gpg"); err == nil {
			gpgPath = p
		}
	}
	if gpgPath == "" {
		os.Stderr.WriteString("gpg not found: GnuPG interop tests will be skipped\n")
	} else {
		os.Stderr.WriteString("Using gpg at " + gpgPath + "\n")
	}

	os.Exit(m.Run())
}

// runGPG runs gpg in batch mode with a throwaway home directory.
func runGPG(t *testing.T, stdin []byte, args ...string) ([]byte, error) {
	t.Helper()
	if gpgPath == "" {
		t.Skip("gpg not available")
	}
	home := t.TempDir()
	full := append([]string{"--homedir", home, "--batch", "--yes", "--pinentry-mode", "loopback"}, args...)
	cmd := exec.Command(gpgPath, full...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Logf("gpg stderr:\n%s", stderr.String())
	}
	return out, err
}
