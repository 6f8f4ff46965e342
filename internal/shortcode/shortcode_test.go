package shortcode_test

import (
	"regexp"
	"testing"

	"github.com/serroba/link-registry/internal/registry"
	"github.com/serroba/link-registry/internal/shortcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

	t.Run("default length codes are alphanumeric", func(t *testing.T) {
		for range 500 {
			code, err := shortcode.Generate(shortcode.DefaultLength)

			require.NoError(t, err)
			assert.Regexp(t, pattern, code)
		}
	})

	t.Run("generated codes are valid custom codes", func(t *testing.T) {
		for _, length := range []int{shortcode.MinLength, 8, shortcode.MaxLength} {
			code, err := shortcode.Generate(length)

			require.NoError(t, err)
			assert.Len(t, code, length)
			assert.True(t, registry.ValidCode(code))
		}
	})

	t.Run("rejects out of range lengths", func(t *testing.T) {
		for _, length := range []int{0, 2, 21} {
			_, err := shortcode.Generate(length)

			assert.Error(t, err)
		}
	})
}

func TestNewGenerator(t *testing.T) {
	t.Run("produces distinct codes", func(t *testing.T) {
		gen, err := shortcode.NewGenerator(shortcode.DefaultLength)
		require.NoError(t, err)

		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			seen[gen()] = struct{}{}
		}

		assert.Len(t, seen, 1000)
	})

	t.Run("draws every character class", func(t *testing.T) {
		gen, err := shortcode.NewGenerator(shortcode.MaxLength)
		require.NoError(t, err)

		var upper, lower, digit bool

		for range 200 {
			for _, r := range gen() {
				switch {
				case r >= 'A' && r <= 'Z':
					upper = true
				case r >= 'a' && r <= 'z':
					lower = true
				case r >= '0' && r <= '9':
					digit = true
				}
			}
		}

		assert.True(t, upper)
		assert.True(t, lower)
		assert.True(t, digit)
	})
}
