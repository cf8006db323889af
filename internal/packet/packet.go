// Package packet frames and parses OpenPGP packets (RFC 9580 section 4).
package packet

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Tag is an OpenPGP packet type.
type Tag uint8

// Packet tags.
const (
	TagPKESK            Tag = 1
	TagSignature        Tag = 2
	TagSKESK            Tag = 3
	TagOnePassSignature Tag = 4
	TagSecretKey        Tag = 5
	TagPublicKey        Tag = 6
	TagSecretSubkey     Tag = 7
	TagCompressed       Tag = 8
	TagLiteral          Tag = 11
	TagPublicSubkey     Tag = 14
	TagSEIPD            Tag = 18
	TagMDC              Tag = 19
	TagPadding          Tag = 21
)

func (t Tag) String() string {
	switch t {
	case TagPKESK:
		return "PKESK"
	case TagSignature:
		return "Signature"
	case TagSKESK:
		return "SKESK"
	case TagOnePassSignature:
		return "OnePassSignature"
	case TagSecretKey:
		return "SecretKey"
	case TagPublicKey:
		return "PublicKey"
	case TagSecretSubkey:
		return "SecretSubkey"
	case TagCompressed:
		return "Compressed"
	case TagLiteral:
		return "Literal"
	case TagPublicSubkey:
		return "PublicSubkey"
	case TagSEIPD:
		return "SEIPD"
	case TagMDC:
		return "MDC"
	case TagPadding:
		return "Padding"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// AppendLength appends a new-format body length.
func AppendLength(dst []byte, n int) []byte {
	switch {
	case n < 192:
		return append(dst, byte(n))
	case n < 8384:
		n -= 192
		return append(dst, byte(n>>8)+192, byte(n))
	default:
		return binary.BigEndian.AppendUint32(append(dst, 0xFF), uint32(n))
	}
}

// AppendHeader appends a new-format packet header for a body of length n.
func AppendHeader(dst []byte, tag Tag, n int) []byte {
	return AppendLength(append(dst, 0xC0|byte(tag)), n)
}

// Serialize writes a complete packet with a definite length.
func Serialize(w io.Writer, tag Tag, body []byte) error {
	buf := AppendHeader(make([]byte, 0, 6+len(body)), tag, len(body))
	buf = append(buf, body...)
	_, err := w.Write(buf)
	return err
}
