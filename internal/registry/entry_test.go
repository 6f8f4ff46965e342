package registry_test

import (
	"testing"
	"time"

	"github.com/serroba/link-registry/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_IsExpired(t *testing.T) {
	e := &registry.Entry{CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}

	assert.False(t, e.IsExpired(t0))
	assert.False(t, e.IsExpired(t0.Add(time.Minute)))
	assert.True(t, e.IsExpired(t0.Add(time.Minute+time.Millisecond)))
}

func TestEntry_Clone(t *testing.T) {
	e := &registry.Entry{
		ShortCode: "abc123",
		Clicks:    []registry.Click{{Timestamp: t0, Referrer: "Direct", Location: "Unknown"}},
	}

	clone := e.Clone()
	clone.Clicks[0].Referrer = "changed"
	clone.Clicks = append(clone.Clicks, registry.Click{})

	require.Len(t, e.Clicks, 1)
	assert.Equal(t, "Direct", e.Clicks[0].Referrer)
}

func TestFullShortURL(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"https://sho.rt", "https://sho.rt/abc123"},
		{"https://sho.rt/", "https://sho.rt/abc123"},
		{"http://localhost:8888", "http://localhost:8888/abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, registry.FullShortURL(tt.origin, "abc123"))
		})
	}
}

func TestCodec(t *testing.T) {
	t.Run("uses the browser blob keys", func(t *testing.T) {
		data, err := registry.EncodeEntries([]registry.Entry{{
			ID:              "id-1",
			OriginalURL:     testURL,
			ShortCode:       "mylink",
			CustomCode:      "mylink",
			CreatedAt:       t0,
			ExpiresAt:       t0.Add(30 * time.Minute),
			ValidityMinutes: 30,
			Clicks:          []registry.Click{{Timestamp: t0, Referrer: "Direct", Location: "Unknown"}},
		}})
		require.NoError(t, err)

		assert.JSONEq(t, `[{
			"id": "id-1",
			"originalUrl": "https://example.com/very/long/path",
			"shortCode": "mylink",
			"customShortCode": "mylink",
			"createdAt": "2024-05-01T12:00:00.000Z",
			"expiryDate": "2024-05-01T12:30:00.000Z",
			"validityMinutes": 30,
			"clicks": [{"timestamp": "2024-05-01T12:00:00.000Z", "source": "Direct", "location": "Unknown"}]
		}]`, string(data))
	})

	t.Run("writes timestamps like Date.toISOString", func(t *testing.T) {
		created := time.Date(2024, 5, 1, 14, 0, 0, 120*int(time.Millisecond), time.FixedZone("CEST", 2*60*60))

		data, err := registry.EncodeEntries([]registry.Entry{{
			ID:        "id-1",
			ShortCode: "abc123",
			CreatedAt: created,
			ExpiresAt: created.Add(time.Minute),
		}})
		require.NoError(t, err)

		assert.Contains(t, string(data), `"createdAt":"2024-05-01T12:00:00.120Z"`)
		assert.Contains(t, string(data), `"expiryDate":"2024-05-01T12:01:00.120Z"`)
	})

	t.Run("writes nil clicks as an empty array", func(t *testing.T) {
		data, err := registry.EncodeEntries([]registry.Entry{{ID: "id-1", ShortCode: "abc123"}})
		require.NoError(t, err)

		assert.Contains(t, string(data), `"clicks":[]`)
		assert.NotContains(t, string(data), "customShortCode")
	})

	t.Run("leaves ampersands in urls unescaped", func(t *testing.T) {
		data, err := registry.EncodeEntries([]registry.Entry{{
			ID:          "id-1",
			OriginalURL: "https://example.com/search?q=go&page=2",
			ShortCode:   "abc123",
		}})
		require.NoError(t, err)

		assert.Contains(t, string(data), `"originalUrl":"https://example.com/search?q=go&page=2"`)
		assert.NotContains(t, string(data), "\\u0026")
	})

	t.Run("missing or null clicks decode to an empty log", func(t *testing.T) {
		entries, err := registry.DecodeEntries([]byte(`[
			{"id":"a","shortCode":"abc123","createdAt":"2024-05-01T12:00:00.000Z","expiryDate":"2024-05-01T12:30:00.000Z","validityMinutes":30},
			{"id":"b","shortCode":"def456","createdAt":"2024-05-01T12:00:00.000Z","expiryDate":"2024-05-01T12:30:00.000Z","validityMinutes":30,"clicks":null}
		]`))
		require.NoError(t, err)
		require.Len(t, entries, 2)

		for _, e := range entries {
			assert.NotNil(t, e.Clicks)
			assert.Empty(t, e.Clicks)
		}
	})

	t.Run("encodes nil as an empty array", func(t *testing.T) {
		data, err := registry.EncodeEntries(nil)

		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("decodes a browser export", func(t *testing.T) {
		entries, err := registry.DecodeEntries([]byte(`[{
			"id": "1714564800000",
			"originalUrl": "https://example.com",
			"shortCode": "Ab3xYz",
			"createdAt": "2024-05-01T12:00:00.000Z",
			"expiryDate": "2024-05-01T12:30:00.000Z",
			"validityMinutes": 30,
			"clicks": []
		}]`))

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, registry.Code("Ab3xYz"), entries[0].ShortCode)
		assert.False(t, entries[0].IsCustom())
		assert.True(t, entries[0].ExpiresAt.Equal(t0.Add(30*time.Minute)))
	})

	t.Run("empty input is an empty collection", func(t *testing.T) {
		entries, err := registry.DecodeEntries(nil)

		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("null is an empty collection", func(t *testing.T) {
		entries, err := registry.DecodeEntries([]byte("null"))

		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("corrupt input is an error", func(t *testing.T) {
		_, err := registry.DecodeEntries([]byte("{not json"))

		assert.Error(t, err)
	})
}
