package packet

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// AppendMPI appends b, a big-endian unsigned integer, as an MPI.
func AppendMPI(dst, b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	n := 0
	if len(b) > 0 {
		n = (len(b)-1)*8 + bits.Len8(b[0])
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	return append(dst, b...)
}

// ReadMPI parses an MPI from the front of buf. The encoding must be
// canonical: no leading zero octets and a bit count that matches the most
// significant set bit.
func ReadMPI(buf []byte) (value, rest []byte, err error) {
	if len(buf) < 2 {
		return nil, nil, fmt.Errorf("%w: truncated MPI", crypto.ErrInvalidArgument)
	}
	count := int(binary.BigEndian.Uint16(buf))
	n := (count + 7) / 8
	if len(buf)-2 < n {
		return nil, nil, fmt.Errorf("%w: truncated MPI", crypto.ErrInvalidArgument)
	}
	value = buf[2 : 2+n]
	if n > 0 {
		if value[0] == 0 {
			return nil, nil, fmt.Errorf("%w: MPI has a leading zero octet", crypto.ErrInvalidArgument)
		}
		if got := 8*(n-1) + bits.Len8(value[0]); got != count {
			return nil, nil, fmt.Errorf("%w: MPI bit count %d, value has %d bits", crypto.ErrInvalidArgument, count, got)
		}
	}
	return value, buf[2+n:], nil
}
