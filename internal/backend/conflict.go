//go:build openpgp_native && openpgp_software

package backend

// The openpgp_native and openpgp_software tags select different backends
// and cannot be combined.
var _ = openpgp_native_and_openpgp_software_tags_are_mutually_exclusive
