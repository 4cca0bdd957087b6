package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainModel       = "propsolve/model/v1"
	DomainResult      = "propsolve/result/v1"
	DomainConstraints = "propsolve/constraints/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ModelHash computes the content hash of a compiled model together with the
// lattice and solver configuration it is analyzed under.
func ModelHash(model Model, lattice LatticeSpec, cfg SolverConfig) (string, error) {
	generic, err := ToCanonicalValue(map[string]any{
		"model":   model,
		"lattice": lattice,
		"solver":  cfg,
	})
	if err != nil {
		return "", fmt.Errorf("ModelHash: %w", err)
	}
	canonical, err := MarshalCanonical(generic)
	if err != nil {
		return "", fmt.Errorf("ModelHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

// ResultDigest computes the digest of a set of resolved properties keyed by
// component name.
func ResultDigest(properties map[string]string) (string, error) {
	canonical, err := MarshalCanonical(properties)
	if err != nil {
		return "", fmt.Errorf("ResultDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// ConstraintsDigest computes the digest of a rendered constraint list.
// Order matters: callers sort when they need an order-insensitive digest.
func ConstraintsDigest(constraints []string) (string, error) {
	canonical, err := MarshalCanonical(constraints)
	if err != nil {
		return "", fmt.Errorf("ConstraintsDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConstraints, canonical), nil
}

// MustResultDigest is like ResultDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultDigest(properties map[string]string) string {
	d, err := ResultDigest(properties)
	if err != nil {
		panic(err)
	}
	return d
}
