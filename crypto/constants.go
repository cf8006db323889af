package crypto

const (
	// X25519KeySize is the size of an X25519 public or secret key in bytes.
	X25519KeySize = 32
	// X448KeySize is the size of an X448 public or secret key in bytes.
	X448KeySize = 56

	// Ed25519PublicKeySize is the size of an Ed25519 public key in bytes.
	Ed25519PublicKeySize = 32
	// Ed25519SeedSize is the size of an Ed25519 secret seed in bytes.
	Ed25519SeedSize = 32
	// Ed25519SignatureSize is the size of an Ed25519 signature in bytes.
	Ed25519SignatureSize = 64

	// Ed448PublicKeySize is the size of an Ed448 public key in bytes.
	Ed448PublicKeySize = 57
	// Ed448SeedSize is the size of an Ed448 secret seed in bytes.
	Ed448SeedSize = 57
	// Ed448SignatureSize is the size of an Ed448 signature in bytes.
	Ed448SignatureSize = 114

	// MLKEMSeedSize is the size of an ML-KEM decapsulation seed (d || z).
	MLKEMSeedSize = 64
	// MLKEMSharedKeySize is the size of an ML-KEM shared secret in bytes.
	MLKEMSharedKeySize = 32
	// MLKEM768PublicKeySize is the size of an ML-KEM-768 public key in bytes.
	MLKEM768PublicKeySize = 1184
	// MLKEM768CiphertextSize is the size of an ML-KEM-768 ciphertext in bytes.
	MLKEM768CiphertextSize = 1088
	// MLKEM1024PublicKeySize is the size of an ML-KEM-1024 public key in bytes.
	MLKEM1024PublicKeySize = 1568
	// MLKEM1024CiphertextSize is the size of an ML-KEM-1024 ciphertext in bytes.
	MLKEM1024CiphertextSize = 1568

	// MLDSASeedSize is the size of an ML-DSA secret seed in bytes.
	MLDSASeedSize = 32
	// MLDSA65PublicKeySize is the size of an ML-DSA-65 public key in bytes.
	MLDSA65PublicKeySize = 1952
	// MLDSA65SignatureSize is the size of an ML-DSA-65 signature in bytes.
	MLDSA65SignatureSize = 3309
	// MLDSA87PublicKeySize is the size of an ML-DSA-87 public key in bytes.
	MLDSA87PublicKeySize = 2592
	// MLDSA87SignatureSize is the size of an ML-DSA-87 signature in bytes.
	MLDSA87SignatureSize = 4627

	// AEADTagSize is the authentication tag size for every AEAD mode.
	AEADTagSize = 16
)
