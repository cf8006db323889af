package openpgp

import (
	"bytes"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp/s2k"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// pkeskBody builds a public-key encrypted session key packet body for k.
func pkeskBody(p crypto.Provider, k *PublicKey, v6 bool, cipher crypto.SymmetricAlgorithm, sk *crypto.SecretBuffer) ([]byte, error) {
	fields, err := encryptSessionKey(p, k, v6, cipher, sk)
	if err != nil {
		return nil, keyError(k, err)
	}
	var b []byte
	if v6 {
		fpr := k.Fingerprint()
		b = append(b, 6, byte(1+len(fpr)), byte(k.Version))
		b = append(b, fpr...)
	} else {
		id := k.KeyID()
		b = append(b, 3)
		b = append(b, id[:]...)
	}
	b = append(b, byte(k.Algorithm))
	return append(b, fields...), nil
}

// pkesk is a decoded public-key encrypted session key packet.
type pkesk struct {
	version    int
	keyID      KeyID
	keyVersion int
	fpr        []byte
	algo       crypto.PublicKeyAlgorithm
	fields     []byte
}

func parsePKESK(body []byte) (*pkesk, error) {
	malformed := fmt.Errorf("%w: malformed PKESK packet", ErrInvalidArgument)
	if len(body) < 1 {
		return nil, malformed
	}
	e := &pkesk{version: int(body[0])}
	rest := body[1:]
	switch e.version {
	case 3:
		if len(rest) < 9 {
			return nil, malformed
		}
		copy(e.keyID[:], rest[:8])
		rest = rest[8:]
	case 6:
		if len(rest) < 1 || len(rest) < 1+int(rest[0]) {
			return nil, malformed
		}
		n := int(rest[0])
		if n > 0 {
			e.keyVersion = int(rest[1])
			e.fpr = bytes.Clone(rest[2 : 1+n])
		}
		rest = rest[1+n:]
	default:
		return nil, fmt.Errorf("%w: PKESK version %d", ErrUnsupported, e.version)
	}
	if len(rest) < 1 {
		return nil, malformed
	}
	e.algo = crypto.PublicKeyAlgorithm(rest[0])
	e.fields = rest[1:]
	return e, nil
}

// anonymous reports whether the packet hides its recipient.
func (e *pkesk) anonymous() bool {
	if e.version == 6 {
		return e.fpr == nil
	}
	return e.keyID == KeyID{}
}

// matches reports whether the packet is addressed to k.
func (e *pkesk) matches(k *PublicKey) bool {
	if e.algo != k.Algorithm {
		return false
	}
	if e.anonymous() {
		return true
	}
	if e.version == 6 {
		return bytes.Equal(e.fpr, k.Fingerprint())
	}
	return e.keyID == k.KeyID()
}

func (e *pkesk) decrypt(p crypto.Provider, k *PrivateKey) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	cipher, sk, err := decryptSessionKey(p, k, e.version == 6, e.fields)
	if err != nil {
		return 0, nil, keyError(&k.PublicKey, err)
	}
	return cipher, sk, nil
}

// skeskInfo returns the HKDF info and AEAD associated data of a v6 SKESK.
func skeskInfo(cipher crypto.SymmetricAlgorithm, mode crypto.AEADMode) []byte {
	return []byte{0xC3, 6, byte(cipher), byte(mode)}
}

// skeskBody builds a symmetric-key encrypted session key packet body.
func skeskBody(p crypto.Provider, password []byte, v6 bool, cipher crypto.SymmetricAlgorithm, mode crypto.AEADMode, cfg *s2k.Config, sk *crypto.SecretBuffer) ([]byte, error) {
	var specifier bytes.Buffer
	kek := crypto.NewSecretBuffer(cipher.KeySize())
	defer kek.Destroy()
	if err := s2k.Serialize(&specifier, kek.Bytes(), crypto.RandReader(p), password, cfg); err != nil {
		return nil, fmt.Errorf("%w: s2k: %v", ErrInvalidArgument, err)
	}

	if !v6 {
		iv := make([]byte, cipher.BlockSize())
		enc, err := p.Encryptor(cipher, crypto.ModeCFB, kek, iv)
		if err != nil {
			return nil, err
		}
		ct := append([]byte{byte(cipher)}, sk.Bytes()...)
		if err := enc.Encrypt(ct, ct); err != nil {
			return nil, err
		}
		if err := enc.Finish(); err != nil {
			return nil, err
		}
		b := append([]byte{4, byte(cipher)}, specifier.Bytes()...)
		return append(b, ct...), nil
	}

	info := skeskInfo(cipher, mode)
	wrapKey := crypto.NewSecretBuffer(cipher.KeySize())
	defer wrapKey.Destroy()
	if err := p.HKDFSHA256(kek, nil, info, wrapKey); err != nil {
		return nil, err
	}
	aead, err := p.AEAD(cipher, mode, wrapKey)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, mode.NonceSize())
	if err := p.Random(iv); err != nil {
		return nil, err
	}
	b := []byte{6, byte(3 + specifier.Len() + len(iv)), byte(cipher), byte(mode), byte(specifier.Len())}
	b = append(b, specifier.Bytes()...)
	b = append(b, iv...)
	return aead.Seal(b, iv, sk.Bytes(), info), nil
}

// decryptSKESK derives the key encryption key from password and recovers
// the session key.
func decryptSKESK(p crypto.Provider, body, password []byte) (crypto.SymmetricAlgorithm, *crypto.SecretBuffer, error) {
	malformed := fmt.Errorf("%w: malformed SKESK packet", ErrInvalidArgument)
	if len(body) < 2 {
		return 0, nil, malformed
	}
	switch body[0] {
	case 4:
		cipher := crypto.SymmetricAlgorithm(body[1])
		if cipher.KeySize() == 0 {
			return 0, nil, fmt.Errorf("%w: cipher %v", ErrUnsupported, cipher)
		}
		r := bytes.NewReader(body[2:])
		kek, err := deriveS2K(r, password, cipher.KeySize())
		if err != nil {
			return 0, nil, err
		}
		ct := body[len(body)-r.Len():]
		if len(ct) == 0 {
			return cipher, kek, nil
		}
		defer kek.Destroy()
		dec, err := p.Decryptor(cipher, crypto.ModeCFB, kek, make([]byte, cipher.BlockSize()))
		if err != nil {
			return 0, nil, err
		}
		pt := make([]byte, len(ct))
		if err := dec.Decrypt(pt, ct); err != nil {
			return 0, nil, err
		}
		dec.Finish()
		defer crypto.Zeroize(pt)
		inner := crypto.SymmetricAlgorithm(pt[0])
		if inner.KeySize() == 0 || inner.KeySize() != len(pt)-1 {
			return 0, nil, fmt.Errorf("%w: wrong password", ErrDecryptionFailed)
		}
		return inner, crypto.SecretBufferCopy(pt[1:]), nil
	case 6:
		if len(body) < 5 {
			return 0, nil, malformed
		}
		count := int(body[1])
		cipher, mode := crypto.SymmetricAlgorithm(body[2]), crypto.AEADMode(body[3])
		specLen := int(body[4])
		nonceSize := mode.NonceSize()
		if nonceSize == 0 || cipher.KeySize() == 0 {
			return 0, nil, fmt.Errorf("%w: SKESK %v/%v", ErrUnsupported, cipher, mode)
		}
		if count != 3+specLen+nonceSize || len(body) < 2+count+crypto.AEADTagSize {
			return 0, nil, malformed
		}
		kek, err := deriveS2K(bytes.NewReader(body[5:5+specLen]), password, cipher.KeySize())
		if err != nil {
			return 0, nil, err
		}
		defer kek.Destroy()
		info := skeskInfo(cipher, mode)
		wrapKey := crypto.NewSecretBuffer(cipher.KeySize())
		defer wrapKey.Destroy()
		if err := p.HKDFSHA256(kek, nil, info, wrapKey); err != nil {
			return 0, nil, err
		}
		aead, err := p.AEAD(cipher, mode, wrapKey)
		if err != nil {
			return 0, nil, err
		}
		iv := body[5+specLen : 5+specLen+nonceSize]
		key, err := aead.Open(nil, iv, body[2+count:], info)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: wrong password", ErrDecryptionFailed)
		}
		return 0, crypto.SecretBufferFromBytes(key), nil
	}
	return 0, nil, fmt.Errorf("%w: SKESK version %d", ErrUnsupported, body[0])
}

func deriveS2K(r *bytes.Reader, password []byte, size int) (*crypto.SecretBuffer, error) {
	params, err := s2k.ParseIntoParams(r)
	if err != nil {
		return nil, fmt.Errorf("%w: s2k: %v", ErrInvalidArgument, err)
	}
	f, err := params.Function()
	if err != nil {
		return nil, fmt.Errorf("%w: s2k: %v", ErrUnsupported, err)
	}
	kek := crypto.NewSecretBuffer(size)
	f(kek.Bytes(), password)
	return kek, nil
}
