package openpgp

import (
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/packet"
)

// signDigest produces the algorithm-specific signature fields over digest.
func signDigest(p crypto.Provider, k *PrivateKey, digest []byte) ([]byte, error) {
	if k.Destroyed() {
		return nil, fmt.Errorf("%w: key has been destroyed", ErrSequencing)
	}
	switch alg := k.Algorithm; alg {
	case crypto.Ed25519, crypto.Ed448:
		return p.EdDSASign(k.Curve, k.secret, digest)
	case crypto.ECDSA:
		r, s, err := p.ECDSASign(k.Curve, k.secret, digest)
		if err != nil {
			return nil, err
		}
		return packet.AppendMPI(packet.AppendMPI(nil, r), s), nil
	case crypto.DSA:
		r, s, err := p.DSASign(k.DSA, k.secret, digest)
		if err != nil {
			return nil, err
		}
		return packet.AppendMPI(packet.AppendMPI(nil, r), s), nil
	case crypto.MLDSA65Ed25519, crypto.MLDSA87Ed448:
		c := composites[alg]
		ecc, err := p.EdDSASign(c.curve, k.secret, digest)
		if err != nil {
			return nil, err
		}
		pq, err := p.MLDSASign(c.pq, k.pqSecret, digest)
		if err != nil {
			return nil, err
		}
		return append(ecc, pq...), nil
	case crypto.SLHDSA128s, crypto.SLHDSA128f, crypto.SLHDSA256s:
		return p.SLHDSASign(slhdsaSets[alg], k.secret, digest)
	default:
		return nil, fmt.Errorf("%w: cannot sign with %v", ErrUnsupported, alg)
	}
}

// verifyDigest checks signature fields against digest. It returns false for
// signatures that do not verify and an error only when the fields cannot be
// parsed or the algorithm is unavailable.
func verifyDigest(p crypto.Provider, k *PublicKey, digest, fields []byte) (bool, error) {
	switch alg := k.Algorithm; alg {
	case crypto.Ed25519, crypto.Ed448:
		if len(fields) != sigSize(alg) {
			return false, nil
		}
		return p.EdDSAVerify(k.Curve, k.Material, digest, fields)
	case crypto.ECDSA, crypto.DSA:
		r, rest, err := packet.ReadMPI(fields)
		if err != nil {
			return false, err
		}
		s, rest, err := packet.ReadMPI(rest)
		if err != nil {
			return false, err
		}
		if len(rest) != 0 {
			return false, fmt.Errorf("%w: trailing signature bytes", ErrInvalidArgument)
		}
		if alg == crypto.DSA {
			return p.DSAVerify(k.DSA, digest, r, s)
		}
		return p.ECDSAVerify(k.Curve, k.Material, digest, r, s)
	case crypto.MLDSA65Ed25519, crypto.MLDSA87Ed448:
		c := composites[alg]
		if len(fields) != c.sigSize+c.pq.OutputSize() {
			return false, nil
		}
		eccOK, err := p.EdDSAVerify(c.curve, k.eccMaterial(), digest, fields[:c.sigSize])
		if err != nil {
			return false, err
		}
		pqOK, err := p.MLDSAVerify(c.pq, k.pqMaterial(), digest, fields[c.sigSize:])
		if err != nil {
			return false, err
		}
		return eccOK && pqOK, nil
	case crypto.SLHDSA128s, crypto.SLHDSA128f, crypto.SLHDSA256s:
		return p.SLHDSAVerify(slhdsaSets[alg], k.Material, digest, fields)
	default:
		return false, fmt.Errorf("%w: cannot verify %v", ErrUnsupported, alg)
	}
}

func sigSize(alg crypto.PublicKeyAlgorithm) int {
	switch alg {
	case crypto.Ed25519:
		return crypto.Ed25519SignatureSize
	case crypto.Ed448:
		return crypto.Ed448SignatureSize
	}
	return 0
}
