package software

import (
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

// DSA has no implementation in this backend.

func (Backend) DSAGenerate(int) (*crypto.DSAPublicKey, *crypto.SecretBuffer, error) {
	return nil, nil, fmt.Errorf("%w: DSA key generation", crypto.ErrUnsupported)
}

func (Backend) DSASign(*crypto.DSAPublicKey, *crypto.SecretBuffer, []byte) (r, s []byte, err error) {
	return nil, nil, fmt.Errorf("%w: DSA sign", crypto.ErrUnsupported)
}

func (Backend) DSAVerify(*crypto.DSAPublicKey, []byte, []byte, []byte) (bool, error) {
	return false, fmt.Errorf("%w: DSA verify", crypto.ErrUnsupported)
}
