package store

import (
	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
)

// decodeOrEmpty decodes a persisted collection, degrading corrupt payloads to an
// empty collection.
func decodeOrEmpty(data []byte, logger *zap.Logger, backend string) []registry.Entry {
	entries, err := registry.DecodeEntries(data)
	if err != nil {
		logger.Warn("discarding unreadable entry collection",
			zap.String("backend", backend),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)

		return []registry.Entry{}
	}

	return entries
}
