package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is embedded in every encoded
// record, so raising DefaultIterations migrates new hashes without breaking
// verification of records written under the old count.
const (
	// DefaultIterations is the PBKDF2 iteration count for new hashes.
	DefaultIterations = 150_000

	saltLen = 16 // salt length in bytes
	keyLen  = 32 // derived key length in bytes

	recordVersion = "v1"
	recordFields  = 4 // version;iterations;salt;key
)

// Hasher derives and verifies password records using PBKDF2-HMAC-SHA256.
//
// Records are self-describing ASCII strings of the form
//
//	v1;<iterations>;<base64 salt>;<base64 key>
//
// Base64 is the padded standard alphabet, matching the records the legacy
// application wrote — old records keep verifying unchanged.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher with the given iteration count.
// Counts below 1 fall back to DefaultIterations.
func NewHasher(iterations int) *Hasher {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives an encoded password record with a fresh random salt.
// Two calls with the same password always produce different records.
// Empty passwords are accepted here; callers reject them earlier.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLen, sha256.New)
	record := fmt.Sprintf("%s;%d;%s;%s",
		recordVersion,
		h.iterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	)
	zero(key)

	return record, nil
}

// Verify checks a plaintext password against an encoded record.
//
// It fails closed: a malformed record, unknown version tag, or undecodable
// field returns false rather than an error. The derived key is compared in
// constant time and both key buffers are zeroed before returning.
func (h *Hasher) Verify(password, stored string) bool {
	iterations, salt, key, err := decodeRecord(stored)
	if err != nil {
		return false
	}

	// Re-derive under the record's own parameters, not the current defaults.
	candidate := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha256.New)
	match := subtle.ConstantTimeCompare(key, candidate) == 1

	zero(candidate)
	zero(key)

	return match
}

// decodeRecord parses an encoded password record into its components.
func decodeRecord(stored string) (iterations int, salt, key []byte, err error) {
	parts := strings.Split(stored, ";")
	if len(parts) != recordFields {
		return 0, nil, nil, fmt.Errorf("expected %d fields, got %d", recordFields, len(parts))
	}

	if parts[0] != recordVersion {
		return 0, nil, nil, fmt.Errorf("unsupported record version: %q", parts[0])
	}

	iterations, err = strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return 0, nil, nil, fmt.Errorf("invalid iteration count: %q", parts[1])
	}

	salt, err = base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return 0, nil, nil, fmt.Errorf("decoding salt: %w", err)
	}

	key, err = base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return 0, nil, nil, fmt.Errorf("decoding key: %w", err)
	}
	if len(key) == 0 {
		return 0, nil, nil, fmt.Errorf("empty derived key")
	}

	return iterations, salt, key, nil
}

// zero overwrites a secret buffer after use.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
