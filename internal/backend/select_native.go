//go:build openpgp_native && !openpgp_software

package backend

import "github.com/vaultsandbox/openpgp-go/internal/backend/native"

// Active is the provider linked into this build.
type Active = native.Backend
