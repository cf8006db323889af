package software

import (
	"fmt"

	"github.com/vaultsandbox/openpgp-go/crypto"
)

func checkSize(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", crypto.ErrInvalidArgument, what, got, want)
	}
	return nil
}

func unsupportedCurve(op string, curve crypto.Curve) error {
	return fmt.Errorf("%w: %s on %v", crypto.ErrUnsupported, op, curve)
}

func unsupportedSet(op string, ps crypto.ParameterSet) error {
	return fmt.Errorf("%w: %s with %v", crypto.ErrUnsupported, op, ps)
}
