// Package hashes computes the SHA-256 hex digests that identify every ledger
// record.
package hashes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// HashSize is the size of a digest in bytes.
const HashSize = sha256.Size

// HashStringSize is the length of a hex encoded digest.
const HashStringSize = HashSize * 2

// Sum returns the raw SHA-256 digest of data.
func Sum(data []byte) [HashSize]byte {
	return sha256.Sum256(data)
}

// HashString returns the hex encoded SHA-256 digest of s.
func HashString(s string) string {
	digest := sha256.Sum256([]byte(s))
	return hex.EncodeToString(digest[:])
}

// HashPair returns the digest of left concatenated with right.
func HashPair(left, right string) string {
	return HashString(left + right)
}

// HashDocument returns the digest of the canonical JSON encoding of document.
// Map keys are emitted in sorted order by encoding/json, so a
// map[string]interface{} document hashes the same regardless of how it was
// built.
func HashDocument(document map[string]interface{}) (string, error) {
	serialized, err := CanonicalJSON(document)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(serialized)
	return hex.EncodeToString(digest[:]), nil
}

// CanonicalJSON serializes document with sorted keys in the compact
// `{"key":value,...}` layout produced by json.Marshal.
func CanonicalJSON(document map[string]interface{}) ([]byte, error) {
	serialized, err := json.Marshal(document)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize document")
	}
	return serialized, nil
}

// CanonicalFloat returns f as is when it is finite, and otherwise its name
// ("NaN", "Infinity" or "-Infinity"), which json.Marshal cannot emit as a
// number.
func CanonicalFloat(f float64) interface{} {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

// IsHashString returns whether s looks like a hex encoded digest.
func IsHashString(s string) bool {
	if len(s) != HashStringSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
