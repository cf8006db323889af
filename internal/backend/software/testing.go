package software

import "io"

// SetRandReaderForTesting routes every random draw of the backend (Random,
// key generation, ephemeral keys and randomized signatures) through r until
// restore is called. A nil r selects crypto/rand.
func SetRandReaderForTesting(r io.Reader) (restore func()) {
	prev := randReader
	randReader = r
	return func() { randReader = prev }
}
