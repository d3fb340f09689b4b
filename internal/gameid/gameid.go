// Package gameid generates the opaque identifiers used for rooms and
// persisted game results: canonical lowercase UUIDv4 strings.
package gameid

import (
	"crypto/rand"
	"fmt"
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator handles ID generation with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator. A nil RandSource means crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new ID using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new random UUIDv4 in canonical 8-4-4-4-12 form.
func (g *Generator) Generate() string {
	var uuid [16]byte

	if g.randSource != nil {
		// Deterministic bytes for tests.
		for i := range uuid {
			uuid[i] = byte(g.randSource.Intn(256))
		}
	} else {
		if _, err := rand.Read(uuid[:]); err != nil {
			panic("failed to generate random bytes: " + err.Error())
		}
	}

	// Version 4, variant 10.
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}

// Validate checks that an ID has the canonical UUID shape.
func Validate(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("game ID must be 36 characters, got %d", len(id))
	}
	for i, c := range id {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return fmt.Errorf("expected '-' at position %d, got %c", i, c)
			}
		default:
			isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
			if !isHex {
				return fmt.Errorf("invalid character %c at position %d", c, i)
			}
		}
	}
	return nil
}
