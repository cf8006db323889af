package packet

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// maxBodySize bounds a single packet body read into memory.
const maxBodySize = 1 << 30

// Reader reads a sequence of packets, reassembling partial bodies.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next packet. It returns io.EOF when no packets remain.
func (pr *Reader) Next() (Tag, []byte, error) {
	first, err := pr.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	if first&0x80 == 0 {
		return 0, nil, malformed("packet header bit not set")
	}

	if first&0x40 == 0 {
		return pr.oldFormat(first)
	}

	tag := Tag(first & 0x3F)
	var body []byte
	for {
		n, partial, err := pr.newLength()
		if err != nil {
			return 0, nil, err
		}
		if len(body)+n > maxBodySize {
			return 0, nil, malformed("packet body too large")
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(pr.r, chunk); err != nil {
			return 0, nil, truncated(err)
		}
		body = append(body, chunk...)
		if !partial {
			return tag, body, nil
		}
	}
}

func (pr *Reader) newLength() (n int, partial bool, err error) {
	b0, err := pr.r.ReadByte()
	if err != nil {
		return 0, false, truncated(err)
	}
	switch {
	case b0 < 192:
		return int(b0), false, nil
	case b0 < 224:
		b1, err := pr.r.ReadByte()
		if err != nil {
			return 0, false, truncated(err)
		}
		return (int(b0)-192)<<8 + int(b1) + 192, false, nil
	case b0 < 255:
		return 1 << (b0 & 0x1F), true, nil
	default:
		var buf [4]byte
		if _, err := io.ReadFull(pr.r, buf[:]); err != nil {
			return 0, false, truncated(err)
		}
		l := binary.BigEndian.Uint32(buf[:])
		if l > maxBodySize {
			return 0, false, malformed("packet body too large")
		}
		return int(l), false, nil
	}
}

func (pr *Reader) oldFormat(first byte) (Tag, []byte, error) {
	tag := Tag((first >> 2) & 0x0F)
	var n int
	switch first & 3 {
	case 0:
		b, err := pr.r.ReadByte()
		if err != nil {
			return 0, nil, truncated(err)
		}
		n = int(b)
	case 1:
		var buf [2]byte
		if _, err := io.ReadFull(pr.r, buf[:]); err != nil {
			return 0, nil, truncated(err)
		}
		n = int(binary.BigEndian.Uint16(buf[:]))
	case 2:
		var buf [4]byte
		if _, err := io.ReadFull(pr.r, buf[:]); err != nil {
			return 0, nil, truncated(err)
		}
		l := binary.BigEndian.Uint32(buf[:])
		if l > maxBodySize {
			return 0, nil, malformed("packet body too large")
		}
		n = int(l)
	default:
		body, err := io.ReadAll(io.LimitReader(pr.r, maxBodySize))
		if err != nil {
			return 0, nil, err
		}
		return tag, body, nil
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(pr.r, body); err != nil {
		return 0, nil, truncated(err)
	}
	return tag, body, nil
}

func malformed(msg string) error {
	return fmt.Errorf("%w: malformed packet: %s", crypto.ErrInvalidArgument, msg)
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated packet", crypto.ErrInvalidArgument)
	}
	return err
}
