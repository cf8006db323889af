// Package openpgp writes OpenPGP messages (RFC 9580 and RFC 4880) through a
// streaming pipeline of nested stages, on top of a pluggable cryptographic
// backend chosen at build time.
//
// Classical algorithms (X25519, X448, Ed25519, Ed448, ECDH, ECDSA, DSA,
// ElGamal) and the post-quantum composites ML-KEM+X25519, ML-KEM+X448,
// ML-DSA+Ed25519 and ML-DSA+Ed448 are supported, subject to the linked
// backend. Build with -tags openpgp_native to use the Go standard library
// backend instead of the default software backend.
//
// Basic usage:
//
//	alice, err := openpgp.GenerateKey(crypto.Ed25519)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bob, err := openpgp.GenerateKey(crypto.MLKEM768X25519, openpgp.WithKeyVersion(6))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg := openpgp.NewMessage(os.Stdout)
//	armored, _ := openpgp.NewArmorer(msg, openpgp.ArmorMessage)
//	encrypted, _ := openpgp.NewEncryptor(armored, openpgp.EncryptTo(bob.Public()))
//	signed, _ := openpgp.NewSigner(encrypted, []*openpgp.PrivateKey{alice})
//	literal, _ := openpgp.NewLiteralWriter(signed)
//
//	io.WriteString(literal, "Hello world.")
//	if err := literal.Finalize(); err != nil {
//	    log.Fatal(err)
//	}
//
// Finalize closes the innermost stage and every stage around it. Stages may
// also be finalized one at a time with FinalizeOne, innermost first.
package openpgp
