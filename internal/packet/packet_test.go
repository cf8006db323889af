package packet

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func TestAppendLength(t *testing.T) {
	tests := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x00}},
		{191, []byte{0xBF}},
		{192, []byte{0xC0, 0x00}},
		{1000, []byte{0xC3, 0x28}},
		{8383, []byte{0xDF, 0xFF}},
		{8384, []byte{0xFF, 0x00, 0x00, 0x20, 0xC0}},
		{100000, []byte{0xFF, 0x00, 0x01, 0x86, 0xA0}},
	}
	for _, tt := range tests {
		if got := AppendLength(nil, tt.n); !bytes.Equal(got, tt.want) {
			t.Errorf("AppendLength(%d) = %x, want %x", tt.n, got, tt.want)
		}
	}
}

func TestSerializeAndRead(t *testing.T) {
	var buf bytes.Buffer
	bodies := map[Tag][]byte{
		TagPKESK:   bytes.Repeat([]byte{1}, 10),
		TagSKESK:   bytes.Repeat([]byte{2}, 300),
		TagLiteral: bytes.Repeat([]byte{3}, 9000),
	}
	order := []Tag{TagPKESK, TagSKESK, TagLiteral}
	for _, tag := range order {
		if err := Serialize(&buf, tag, bodies[tag]); err != nil {
			t.Fatalf("Serialize() error = %v", err)
		}
	}

	r := NewReader(&buf)
	for _, want := range order {
		tag, body, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if tag != want {
			t.Errorf("tag = %v, want %v", tag, want)
		}
		if !bytes.Equal(body, bodies[want]) {
			t.Errorf("%v body mismatch", want)
		}
	}
	if _, _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestPartialWriter(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		partial bool
	}{
		{"empty", 0, false},
		{"small", 100, false},
		{"exactly one chunk", PartialChunkSize, false},
		{"one chunk plus one", PartialChunkSize + 1, true},
		{"several chunks", 5*PartialChunkSize + 17, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, tt.size)
			for i := range payload {
				payload[i] = byte(i)
			}

			var buf bytes.Buffer
			pw := NewPartialWriter(&buf, TagSEIPD)
			// Uneven writes exercise chunk boundaries.
			for p := payload; len(p) > 0; {
				n := min(len(p), 3000)
				if _, err := pw.Write(p[:n]); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
				p = p[n:]
			}
			if err := pw.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			out := buf.Bytes()
			if out[0] != 0xC0|byte(TagSEIPD) {
				t.Errorf("header byte = %#x", out[0])
			}
			if got := out[1]&0xE0 == 0xE0 && out[1] != 0xFF; got != tt.partial {
				t.Errorf("partial length used = %v, want %v", got, tt.partial)
			}

			tag, body, err := NewReader(&buf).Next()
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if tag != TagSEIPD {
				t.Errorf("tag = %v, want SEIPD", tag)
			}
			if !bytes.Equal(body, payload) {
				t.Errorf("body length = %d, want %d", len(body), len(payload))
			}
		})
	}
}

func TestPartialWriter_WriteAfterClose(t *testing.T) {
	pw := NewPartialWriter(io.Discard, TagLiteral)
	if err := pw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := pw.Write([]byte("x")); err == nil {
		t.Error("Write() after Close() succeeded")
	}
}

func TestReader_OldFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		tag  Tag
		body []byte
	}{
		{"one-octet", []byte{0x80 | 2<<2 | 0, 3, 'a', 'b', 'c'}, TagSignature, []byte("abc")},
		{"two-octet", []byte{0x80 | 11<<2 | 1, 0, 2, 'h', 'i'}, TagLiteral, []byte("hi")},
		{"four-octet", []byte{0x80 | 6<<2 | 2, 0, 0, 0, 1, 'k'}, TagPublicKey, []byte("k")},
		{"indeterminate", []byte{0x80 | 11<<2 | 3, 'r', 'e', 's', 't'}, TagLiteral, []byte("rest")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, body, err := NewReader(bytes.NewReader(tt.data)).Next()
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if tag != tt.tag || !bytes.Equal(body, tt.body) {
				t.Errorf("Next() = %v %q, want %v %q", tag, body, tt.tag, tt.body)
			}
		})
	}
}

func TestReader_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no header bit", []byte{0x01, 0x00}},
		{"truncated body", []byte{0xCB, 0x05, 'a'}},
		{"truncated length", []byte{0xCB, 0xFF, 0x00}},
		{"truncated partial", []byte{0xD2, 0xE1, 'a'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewReader(bytes.NewReader(tt.data)).Next()
			if !errors.Is(err, crypto.ErrInvalidArgument) {
				t.Errorf("Next() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestMPI(t *testing.T) {
	tests := []struct {
		in   []byte
		want []byte
	}{
		{[]byte{0x01}, []byte{0x00, 0x01, 0x01}},
		{[]byte{0x00, 0x00, 0x7F}, []byte{0x00, 0x07, 0x7F}},
		{[]byte{0x80, 0x00}, []byte{0x00, 0x10, 0x80, 0x00}},
		{nil, []byte{0x00, 0x00}},
	}
	for _, tt := range tests {
		got := AppendMPI(nil, tt.in)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendMPI(%x) = %x, want %x", tt.in, got, tt.want)
		}
	}

	buf := AppendMPI(AppendMPI(nil, []byte{0x12, 0x34}), []byte{0x05})
	v1, rest, err := ReadMPI(buf)
	if err != nil {
		t.Fatalf("ReadMPI() error = %v", err)
	}
	v2, rest, err := ReadMPI(rest)
	if err != nil {
		t.Fatalf("ReadMPI() error = %v", err)
	}
	if !bytes.Equal(v1, []byte{0x12, 0x34}) || !bytes.Equal(v2, []byte{0x05}) || len(rest) != 0 {
		t.Errorf("ReadMPI() = %x, %x, rest %x", v1, v2, rest)
	}

	if _, _, err := ReadMPI([]byte{0x00, 0x10, 0x01}); !errors.Is(err, crypto.ErrInvalidArgument) {
		t.Errorf("ReadMPI(truncated) error = %v, want ErrInvalidArgument", err)
	}
}

func TestReadMPI_NonCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"bit count too high", []byte{0x00, 0x0A, 0x01, 0x23}},
		{"bit count too low", []byte{0x00, 0x0F, 0x81, 0x23}},
		{"low bit of count flipped", []byte{0x00, 0x08, 0x7F}},
		{"leading zero octet", []byte{0x00, 0x10, 0x00, 0x7F}},
		{"zero value with length", []byte{0x00, 0x01, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadMPI(tt.in); !errors.Is(err, crypto.ErrInvalidArgument) {
				t.Errorf("ReadMPI(%x) error = %v, want ErrInvalidArgument", tt.in, err)
			}
		})
	}

	for _, in := range [][]byte{{0x00, 0x00}, {0x00, 0x01, 0x01}, {0x00, 0x10, 0xFF, 0xFF}} {
		if _, _, err := ReadMPI(in); err != nil {
			t.Errorf("ReadMPI(%x) error = %v", in, err)
		}
	}
}
