// Package software implements the crypto contracts on top of pure-Go
// libraries.
//
// # Algorithm Coverage
//
//   - X25519, X448, Ed25519, Ed448: github.com/cloudflare/circl.
//   - ML-KEM-768/1024 (FIPS 203), ML-DSA-65/87 (FIPS 204) and
//     SLH-DSA-SHAKE-128s/128f/256s (FIPS 205): circl.
//   - NIST P-256/384/521: the standard library.
//   - Brainpool curves and ElGamal: github.com/ProtonMail/go-crypto.
//   - secp256k1: github.com/btcsuite/btcd/btcec/v2.
//   - AES, TripleDES, CAST5, Blowfish, Twofish with CFB, CBC and ECB.
//   - EAX and OCB from go-crypto, GCM from the standard library.
//   - HKDF from golang.org/x/crypto.
//
// DSA is not implemented; the capability query reports false and the
// operations fail with crypto.ErrUnsupported.
//
// # Key Encoding
//
// ML-KEM secrets are the 64-byte (d || z) seed and ML-DSA secrets the 32-byte
// seed, so the same secret expands to the same key in every backend. SLH-DSA
// secrets are the full FIPS 205 private key, which ends with the public key.
package software
