// Package id generates prefixed entity identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixPost    = "post"
	PrefixVariant = "var"
	PrefixFolder  = "fld"
	PrefixPrompt  = "prm"
)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "post-V1StGXR8_Z5jdHi6B-myT".
//
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Generator produces entity IDs. Services take one so tests can pin IDs.
type Generator interface {
	Generate(prefix string) (string, error)
}

// NanoGenerator is the production Generator.
type NanoGenerator struct{}

// Generate implements Generator.
func (NanoGenerator) Generate(prefix string) (string, error) {
	return Generate(prefix)
}
