package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"testing"
)

func TestNewDigest_KnownAnswers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		alg  HashAlgorithm
		want string
	}{
		{MD5, "900150983cd24fb0d6963f7d28e17f72"},
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{RIPEMD160, "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
		{SHA224, "23097d223405d8228642a477bda255b32aadbce4bda0b3f7e36c9da7"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA384, "cb00753f45a35e8bb5a03d699ac65007272c32ab0eded1631a8b605a43ff5bed8086072ba1e7cc2358baeca134c825a7"},
		{SHA512, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{SHA3_256, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			d, err := NewDigest(tt.alg)
			if err != nil {
				t.Fatalf("NewDigest() error = %v", err)
			}
			if d.Algorithm() != tt.alg {
				t.Errorf("Algorithm() = %v, want %v", d.Algorithm(), tt.alg)
			}
			if d.Size() != tt.alg.Size() {
				t.Errorf("Size() = %d, want %d", d.Size(), tt.alg.Size())
			}

			d.Write([]byte("abc"))
			got, err := Sum(d)
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("digest = %x, want %s", got, tt.want)
			}
		})
	}
}

func TestNewDigest_Unsupported(t *testing.T) {
	t.Parallel()
	_, err := NewDigest(HashAlgorithm(99))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("NewDigest(99) error = %v, want ErrUnsupported", err)
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("ErrUnsupported should match ErrInvalidArgument")
	}
}

// The generic digest resets silently after extraction.
func TestDigest_ResetsAfterExtraction(t *testing.T) {
	t.Parallel()
	d, _ := NewDigest(SHA256)
	d.Write([]byte("abc"))
	first, _ := Sum(d)

	d.Write([]byte("abc"))
	second, err := Sum(d)
	if err != nil {
		t.Fatalf("second Sum() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("digest should restart from an empty state after extraction")
	}
}

func TestDigest_WrongBufferSize(t *testing.T) {
	t.Parallel()
	for _, alg := range []HashAlgorithm{SHA1, SHA256} {
		d, _ := NewDigest(alg)
		err := d.Digest(make([]byte, d.Size()+1))
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%v: Digest() error = %v, want ErrInvalidArgument", alg, err)
		}
	}
}

func readShattered(t *testing.T) (a, b []byte) {
	t.Helper()
	a, err := os.ReadFile("testdata/shattered-prefix-1.bin")
	if err != nil {
		t.Fatal(err)
	}
	b, err = os.ReadFile("testdata/shattered-prefix-2.bin")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("fixtures should differ")
	}
	return a, b
}

func TestSHA1CD_DetectsCollision(t *testing.T) {
	t.Parallel()
	a, b := readShattered(t)

	for name, input := range map[string][]byte{"shattered-1": a, "shattered-2": b} {
		t.Run(name, func(t *testing.T) {
			d := NewSHA1CD()
			d.Write(input)
			if _, err := d.Finalize(); !errors.Is(err, ErrCollisionDetected) {
				t.Errorf("Finalize() error = %v, want ErrCollisionDetected", err)
			}
		})
	}
}

// Digest leaves the state in place when the heuristic fires, so the
// collision is reported again on every attempt.
func TestSHA1CD_DigestKeepsStateOnCollision(t *testing.T) {
	t.Parallel()
	a, _ := readShattered(t)
	d := NewSHA1CD()
	d.Write(a)

	out := make([]byte, d.Size())
	for i := 0; i < 2; i++ {
		if err := d.Digest(out); !errors.Is(err, ErrCollisionDetected) {
			t.Fatalf("Digest() attempt %d error = %v, want ErrCollisionDetected", i, err)
		}
	}
	if !bytes.Equal(out, make([]byte, d.Size())) {
		t.Error("output should not be written on collision")
	}

	d.Reset()
	d.Write([]byte("abc"))
	if err := d.Digest(out); err != nil {
		t.Fatalf("Digest() after Reset error = %v", err)
	}
}

// Finalize is one-shot while Digest resets; both behaviors are kept.
func TestSHA1CD_FinalizeIsOneShot(t *testing.T) {
	t.Parallel()
	d := NewSHA1CD()
	d.Write([]byte("abc"))
	sum, err := d.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if hex.EncodeToString(sum) != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("Finalize() = %x", sum)
	}

	if _, err := d.Write([]byte("x")); !errors.Is(err, ErrSequencing) {
		t.Errorf("Write() after Finalize error = %v, want ErrSequencing", err)
	}
	if _, err := d.Finalize(); !errors.Is(err, ErrSequencing) {
		t.Errorf("second Finalize() error = %v, want ErrSequencing", err)
	}
	if err := d.Digest(make([]byte, 20)); !errors.Is(err, ErrSequencing) {
		t.Errorf("Digest() after Finalize error = %v, want ErrSequencing", err)
	}

	d.Reset()
	if _, err := d.Write([]byte("abc")); err != nil {
		t.Errorf("Write() after Reset error = %v", err)
	}
}

func TestSHA1CD_DigestResets(t *testing.T) {
	t.Parallel()
	d := NewSHA1CD()
	d.Write([]byte("abc"))
	first, err := Sum(d)
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	d.Write([]byte("abc"))
	second, _ := Sum(d)
	if !bytes.Equal(first, second) {
		t.Error("SHA1CD.Digest should reset the state on success")
	}
}
