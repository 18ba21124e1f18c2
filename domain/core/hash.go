package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	SummaryFingerprint Hash
	DesignHash         Hash
)

// Constructors
func NewSummaryFingerprint(data []byte) SummaryFingerprint { return SummaryFingerprint(NewHash(data)) }
func NewDesignHash(data []byte) DesignHash                 { return DesignHash(NewHash(data)) }

// String conversions
func (h SummaryFingerprint) String() string { return Hash(h).String() }
func (h DesignHash) String() string         { return Hash(h).String() }

// ComputeFingerprint hashes the canonical JSON of any value. encoding/json
// sorts map keys, so equal values always produce equal fingerprints.
func ComputeFingerprint(v interface{}) (SummaryFingerprint, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint marshal: %w", err)
	}
	return NewSummaryFingerprint(data), nil
}
