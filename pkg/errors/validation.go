package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds node identifiers accepted from interchange files.
const MaxNodeIDLength = 256

// ValidateNodeID validates a node identifier read from an input graph.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of [MaxNodeIDLength] bytes
//
// Identifiers end up in DOT output and cache keys, so anything that could
// break quoting is rejected up front.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", MaxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id %q contains control characters", id)
		}
	}

	return nil
}

// ValidateSpacing checks that a spacing value is a finite, non-negative number.
func ValidateSpacing(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s must be finite", name)
	}
	if v < 0 {
		return New(ErrCodeInvalidConfig, "%s must not be negative (got %g)", name, v)
	}
	return nil
}

// ValidateIntRange checks lo <= v <= hi.
func ValidateIntRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return New(ErrCodeInvalidConfig, "%s must be between %d and %d (got %d)", name, lo, hi, v)
	}
	return nil
}

// ValidateAutoOrPositive accepts -1 (search automatically) or any value >= 1.
func ValidateAutoOrPositive(name string, v int) error {
	if v == -1 || v >= 1 {
		return nil
	}
	return New(ErrCodeInvalidConfig, "%s must be -1 or at least 1 (got %d)", name, v)
}

// ValidateCacheURL validates a cache backend location.
// Plain paths and file:// URLs select the file cache; redis:// rediss://
// mongodb:// and mongodb+srv:// select the remote backends.
func ValidateCacheURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidConfig, "cache location cannot be empty")
	}

	if strings.ContainsRune(raw, '\x00') {
		return New(ErrCodeInvalidConfig, "cache location contains invalid characters")
	}

	scheme, _, found := strings.Cut(raw, "://")
	if !found {
		return nil
	}
	switch scheme {
	case "file", "redis", "rediss", "mongodb", "mongodb+srv":
		return nil
	}
	return New(ErrCodeInvalidConfig, "unsupported cache scheme %q", scheme)
}
