// Package shortcode generates candidate short codes.
package shortcode

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
	"github.com/serroba/link-registry/internal/registry"
)

const (
	// Alphabet is the set of characters a generated code is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the length of generated codes.
	DefaultLength = 6
	// MinLength and MaxLength bound generated codes to the custom code format.
	MinLength = 3
	MaxLength = 20
)

// NewGenerator returns a generator of length-character codes.
func NewGenerator(length int) (registry.CodeGenerator, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("code length must be between %d and %d, got %d", MinLength, MaxLength, length)
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("creating code generator: %w", err)
	}

	return registry.CodeGenerator(gen), nil
}

// Generate returns a single code of the given length.
func Generate(length int) (string, error) {
	gen, err := NewGenerator(length)
	if err != nil {
		return "", err
	}

	return gen(), nil
}
