// Package blockmode turns a cipher.Block into the streaming cipher contexts
// used by every backend.
package blockmode

import (
	"crypto/cipher"
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// NewEncryptor binds block, mode and iv into an encryption context.
func NewEncryptor(block cipher.Block, mode crypto.BlockCipherMode, iv []byte) (crypto.Encryptor, error) {
	c, err := newContext(block, mode, iv, true)
	if err != nil {
		return nil, err
	}
	return &encryptor{c}, nil
}

// NewDecryptor binds block, mode and iv into a decryption context.
func NewDecryptor(block cipher.Block, mode crypto.BlockCipherMode, iv []byte) (crypto.Decryptor, error) {
	c, err := newContext(block, mode, iv, false)
	if err != nil {
		return nil, err
	}
	return &decryptor{c}, nil
}

type context struct {
	blockSize int
	stream    cipher.Stream
	blocks    cipher.BlockMode
	finished  bool
}

func newContext(block cipher.Block, mode crypto.BlockCipherMode, iv []byte, encrypt bool) (*context, error) {
	bs := block.BlockSize()
	c := &context{blockSize: bs}

	switch mode {
	case crypto.ModeCFB:
		if len(iv) != bs {
			return nil, fmt.Errorf("%w: IV is %d bytes, want %d", crypto.ErrInvalidArgument, len(iv), bs)
		}
		if encrypt {
			c.stream = cipher.NewCFBEncrypter(block, iv)
		} else {
			c.stream = cipher.NewCFBDecrypter(block, iv)
		}
	case crypto.ModeCBC:
		if len(iv) != bs {
			return nil, fmt.Errorf("%w: IV is %d bytes, want %d", crypto.ErrInvalidArgument, len(iv), bs)
		}
		if encrypt {
			c.blocks = cipher.NewCBCEncrypter(block, iv)
		} else {
			c.blocks = cipher.NewCBCDecrypter(block, iv)
		}
	case crypto.ModeECB:
		if len(iv) != 0 {
			return nil, fmt.Errorf("%w: ECB takes no IV", crypto.ErrInvalidArgument)
		}
		c.blocks = &ecb{block: block, encrypt: encrypt}
	default:
		return nil, fmt.Errorf("%w: mode %v", crypto.ErrUnsupported, mode)
	}
	return c, nil
}

func (c *context) process(dst, src []byte) error {
	if c.finished {
		return fmt.Errorf("%w: cipher context already finished", crypto.ErrSequencing)
	}
	if len(dst) < len(src) {
		return fmt.Errorf("%w: output buffer is %d bytes, input is %d", crypto.ErrInvalidArgument, len(dst), len(src))
	}
	if c.stream != nil {
		c.stream.XORKeyStream(dst[:len(src)], src)
		return nil
	}
	if len(src)%c.blockSize != 0 {
		return fmt.Errorf("%w: input is not a multiple of the %d-byte block size", crypto.ErrInvalidArgument, c.blockSize)
	}
	c.blocks.CryptBlocks(dst[:len(src)], src)
	return nil
}

func (c *context) finish() error {
	if c.finished {
		return fmt.Errorf("%w: cipher context already finished", crypto.ErrSequencing)
	}
	c.finished = true
	c.stream = nil
	c.blocks = nil
	return nil
}

type encryptor struct{ c *context }

func (e *encryptor) BlockSize() int                { return e.c.blockSize }
func (e *encryptor) Encrypt(dst, src []byte) error { return e.c.process(dst, src) }
func (e *encryptor) Finish() error                 { return e.c.finish() }

type decryptor struct{ c *context }

func (d *decryptor) BlockSize() int                { return d.c.blockSize }
func (d *decryptor) Decrypt(dst, src []byte) error { return d.c.process(dst, src) }
func (d *decryptor) Finish() error                 { return d.c.finish() }

// ecb processes each block independently. It only exists for the legacy
// constructions that require it.
type ecb struct {
	block   cipher.Block
	encrypt bool
}

func (e *ecb) BlockSize() int { return e.block.BlockSize() }

func (e *ecb) CryptBlocks(dst, src []byte) {
	bs := e.block.BlockSize()
	for len(src) > 0 {
		if e.encrypt {
			e.block.Encrypt(dst[:bs], src[:bs])
		} else {
			e.block.Decrypt(dst[:bs], src[:bs])
		}
		dst, src = dst[bs:], src[bs:]
	}
}
