package crypto

// Encryptor is a streaming encryption context bound at creation to one
// algorithm, mode, key and IV. It cannot decrypt.
type Encryptor interface {
	// BlockSize returns the cipher's block size in bytes.
	BlockSize() int

	// Encrypt encrypts src into dst. dst must be at least as long as src;
	// they may overlap entirely. Block-aligned modes require len(src) to be
	// a multiple of BlockSize.
	Encrypt(dst, src []byte) error

	// Finish ends the context. It may be called exactly once; every later
	// call fails with ErrSequencing.
	Finish() error
}

// Decryptor is a streaming decryption context bound at creation to one
// algorithm, mode, key and IV. It cannot encrypt.
type Decryptor interface {
	// BlockSize returns the cipher's block size in bytes.
	BlockSize() int

	// Decrypt decrypts src into dst with the same rules as Encrypt.
	Decrypt(dst, src []byte) error

	// Finish ends the context. It may be called exactly once.
	Finish() error
}
