//go:build !openpgp_native

package backend

import "github.com/vaultsandbox/openpgp-go/internal/backend/software"

// Active is the provider linked into this build.
type Active = software.Backend
