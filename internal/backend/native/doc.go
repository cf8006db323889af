// Package native implements the crypto.Provider contracts on top of the Go
// standard library alone.
//
// It covers X25519 and the NIST curves for key agreement, Ed25519, ECDSA on
// the NIST curves, DSA, ML-KEM-768 and ML-KEM-1024, AES and TripleDES in
// CFB, CBC and ECB, AES-GCM and HKDF. Curve448, brainpool, secp256k1,
// ML-DSA, SLH-DSA, ElGamal, EAX, OCB and the remaining legacy ciphers are
// reported as unsupported by the capability queries.
package native
