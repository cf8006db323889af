package openpgp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// armorer is the ASCII armor stage.
type armorer struct {
	w io.WriteCloser
}

// NewArmorer returns an armor stage inside m. Everything written to it, or
// emitted by its inner stages, is radix-64 encoded between BEGIN and END
// lines of the given kind.
func NewArmorer(m *Message, kind ArmorKind, opts ...ArmorOption) (*Message, error) {
	a, err := attach(m, kindArmor)
	if err != nil {
		return nil, err
	}
	cfg := armorConfig{checksum: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	w, err := armor.EncodeWithChecksumOption(outerWriter{m}, kind.BlockType(), cfg.headers, cfg.checksum)
	if err != nil {
		return nil, a.wrap("build", err)
	}
	a.logger.WithField("type", kind.BlockType()).Debug("armor stage created")
	return a.link(&armorer{w: w}), nil
}

func (a *armorer) write(p []byte) error {
	_, err := a.w.Write(p)
	return err
}

func (a *armorer) finalize() error {
	return a.w.Close()
}

func (a *armorer) abort() {}

// Unarmor decodes one armored block and returns its type, for example
// "PGP MESSAGE", and its binary contents.
func Unarmor(r io.Reader) (string, []byte, error) {
	block, err := armor.Decode(r)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	body, err := io.ReadAll(block.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return block.Type, body, nil
}

var armorStart = []byte("-----BEGIN PGP ")

// maybeUnarmor returns the binary contents of r, decoding armor when the
// input starts with an armor header line.
func maybeUnarmor(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(64)
	if bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), armorStart) {
		_, body, err := Unarmor(br)
		return body, err
	}
	return io.ReadAll(br)
}
