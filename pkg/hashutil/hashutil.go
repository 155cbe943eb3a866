package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

var ErrUnsupportedAlgo = errors.New("unsupported hash algorithm")

// BodyDigest returns the hex digest recorded for a fetched page body.
// Bodies are digested with blake3: the digest is observational and taken
// once per fetch, so hashing speed matters more than ubiquity.
func BodyDigest(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// HashBytes returns the hash of bytes as a hex string using the specified
// algorithm. Callers that always want the body digest should use
// BodyDigest instead.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		return BodyDigest(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgo, algo)
	}
}
