package llm

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

const (
	cacheKindClassification = "classification/v1"
	cacheKindImpact         = "impact/v1"
)

// AnalysisCache stores successful model answers. Fallback values are never stored.
type AnalysisCache interface {
	// GetAnalysisCache returns nil, nil when there is no entry.
	GetAnalysisCache(kind, key string) ([]byte, error)
	SetAnalysisCache(kind, key string, payload []byte) error
}

// cacheKey creates a SHA256 hash of the call inputs.
// Includes a length prefix for each part to prevent boundary collisions.
func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		// Write length to prevent boundary collisions (e.g. ["ab","c"] vs ["a","bc"])
		binary.Write(h, binary.LittleEndian, int64(len(p)))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// analysisKey scopes a cache key to the configured model, so answers of a
// previous GEMINI_MODEL are not served after a switch.
func (s *Service) analysisKey(parts ...string) string {
	return cacheKey(append([]string{s.modelName}, parts...)...)
}

func (s *Service) cacheGet(kind, key string, out any) bool {
	if s.cache == nil {
		return false
	}

	payload, err := s.cache.GetAnalysisCache(kind, key)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to check analysis cache")
		return false
	}
	if payload == nil {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("ignoring unreadable analysis cache entry")
		return false
	}

	log.Debug().Str("kind", kind).Str("hash", key[:16]).Msg("analysis cache hit")
	return true
}

func (s *Service) cacheSet(kind, key string, v any) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to encode analysis result")
		return
	}
	if err := s.cache.SetAnalysisCache(kind, key, payload); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to cache analysis result")
		return
	}
	log.Debug().Str("kind", kind).Str("hash", key[:16]).Msg("cached analysis result")
}
