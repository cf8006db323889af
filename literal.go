package openpgp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

const maxFilenameLen = 255

// literal is the literal data stage.
type literal struct {
	pw     *packet.PartialWriter
	signer *signer
}

// NewLiteralWriter returns a literal data stage inside m. Data written to it
// is framed as a literal data packet and, when m is a signer, hashed for
// the signatures.
func NewLiteralWriter(m *Message, opts ...LiteralOption) (*Message, error) {
	lm, err := attach(m, kindLiteral)
	if err != nil {
		return nil, err
	}
	cfg := literalConfig{format: FormatBinary}
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.format {
	case FormatBinary, FormatText, FormatUTF8:
	default:
		return nil, lm.wrap("build", fmt.Errorf("%w: literal format %q", ErrInvalidArgument, byte(cfg.format)))
	}

	l := &literal{}
	if s, ok := m.stage.(*signer); ok {
		if s.detached {
			return nil, lm.wrap("build", fmt.Errorf("%w: a detached signer cannot wrap a literal stage", ErrInvalidArgument))
		}
		l.signer = s
	}

	date, err := packetTime(cfg.modTime)
	if err != nil {
		return nil, lm.wrap("build", err)
	}
	name := truncateFilename(cfg.filename)
	header := []byte{byte(cfg.format), byte(len(name))}
	header = append(header, name...)
	header = binary.BigEndian.AppendUint32(header, date)

	l.pw = packet.NewPartialWriter(outerWriter{m}, packet.TagLiteral)
	if _, err := l.pw.Write(header); err != nil {
		return nil, lm.wrap("build", err)
	}
	return lm.link(l), nil
}

// truncateFilename cuts name to maxFilenameLen bytes without splitting a
// UTF-8 sequence.
func truncateFilename(name string) string {
	if len(name) <= maxFilenameLen {
		return name
	}
	n := maxFilenameLen
	for i := 0; i < utf8.UTFMax-1 && n > 0 && !utf8.RuneStart(name[n]); i++ {
		n--
	}
	return name[:n]
}

// packetTime converts t to the 32-bit timestamp of a packet. The zero time
// maps to 0.
func packetTime(t time.Time) (uint32, error) {
	if t.IsZero() {
		return 0, nil
	}
	sec := t.Unix()
	if sec < 0 || sec > math.MaxUint32 {
		return 0, fmt.Errorf("%w: time %v is outside the 32-bit packet range", ErrInvalidArgument, t.UTC())
	}
	return uint32(sec), nil
}

func (l *literal) write(p []byte) error {
	if l.signer != nil {
		if err := l.signer.hash(p); err != nil {
			return err
		}
	}
	_, err := l.pw.Write(p)
	return err
}

func (l *literal) finalize() error {
	return l.pw.Close()
}

func (l *literal) abort() {}
