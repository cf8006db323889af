// Package crypto defines the cryptographic contracts used by the OpenPGP
// message layer. It is agnostic to the library that performs the math: a
// concrete backend is selected at build time and reached only through the
// interfaces declared here.
//
// # Capability Contracts
//
// A backend satisfies four independent contracts:
//
//   - [Backend]: randomness and identification.
//   - [Asymmetric]: key generation, signing, verification, key agreement and
//     key encapsulation, grouped by algorithm family. [Asymmetric.SupportsAlgo]
//     and [Asymmetric.SupportsCurve] report false for anything the backend
//     omits instead of failing.
//   - [Symmetric]: block cipher contexts and AEAD instances.
//   - [Kdf]: HKDF over SHA-256 and SHA-512.
//
// [Provider] bundles all four. Implementations must be safe for concurrent
// use by independent messages.
//
// # Buffers
//
// All fixed-size inputs are checked against the sizes published by the
// algorithm. A buffer of the wrong length fails with [ErrInvalidArgument] and
// is never read or written out of bounds.
//
// Secret material travels in a [SecretBuffer], which zeroes its memory when
// destroyed. Copies are never implicit: [SecretBuffer.Clone] returns a fresh
// buffer with its own lifetime.
//
// # Digests
//
// [NewDigest] returns a [Digest] that resets after each extraction. SHA-1 is
// always served by [SHA1CD], which detects the cryptanalytic patterns of
// known collision attacks and reports [ErrCollisionDetected] instead of a
// hash value.
package crypto
