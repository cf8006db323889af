// Package backend binds the build's single crypto.Provider.
//
// The software backend is linked by default or with the openpgp_software
// build tag. The openpgp_native tag links the standard library backend
// instead. Setting both tags fails the build.
package backend

import "github.com/vaultsandbox/openpgp-go/crypto"

// Default returns the provider linked into this build.
func Default() crypto.Provider {
	return Active{}
}
