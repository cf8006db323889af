package native

import (
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// ML-DSA, SLH-DSA and ElGamal have no standard library implementation.

func (Backend) MLDSAGenerate(ps crypto.ParameterSet) (*crypto.KeyPair, error) {
	return nil, unsupportedSet("ML-DSA key generation", ps)
}

func (Backend) MLDSADerivePublic(ps crypto.ParameterSet, _ *crypto.SecretBuffer) ([]byte, error) {
	return nil, unsupportedSet("ML-DSA public key derivation", ps)
}

func (Backend) MLDSASign(ps crypto.ParameterSet, _ *crypto.SecretBuffer, _ []byte) ([]byte, error) {
	return nil, unsupportedSet("ML-DSA sign", ps)
}

func (Backend) MLDSAVerify(ps crypto.ParameterSet, _, _, _ []byte) (bool, error) {
	return false, unsupportedSet("ML-DSA verify", ps)
}

func (Backend) SLHDSAGenerate(ps crypto.ParameterSet) (*crypto.KeyPair, error) {
	return nil, unsupportedSet("SLH-DSA key generation", ps)
}

func (Backend) SLHDSASign(ps crypto.ParameterSet, _ *crypto.SecretBuffer, _ []byte) ([]byte, error) {
	return nil, unsupportedSet("SLH-DSA sign", ps)
}

func (Backend) SLHDSAVerify(ps crypto.ParameterSet, _, _, _ []byte) (bool, error) {
	return false, unsupportedSet("SLH-DSA verify", ps)
}

func (Backend) ElGamalGenerate(bits int) (*crypto.ElGamalPublicKey, *crypto.SecretBuffer, error) {
	return nil, nil, fmt.Errorf("%w: ElGamal key generation", crypto.ErrUnsupported)
}

func (Backend) ElGamalEncrypt(*crypto.ElGamalPublicKey, []byte) (c1, c2 []byte, err error) {
	return nil, nil, fmt.Errorf("%w: ElGamal encrypt", crypto.ErrUnsupported)
}

func (Backend) ElGamalDecrypt(*crypto.ElGamalPublicKey, *crypto.SecretBuffer, []byte, []byte) (*crypto.SecretBuffer, error) {
	return nil, fmt.Errorf("%w: ElGamal decrypt", crypto.ErrUnsupported)
}
