package speech

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"

	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/foxseedlab/kissandost/internal/kvstore"
)

// CachedSynthesizer keeps synthesized payloads in the key-value store,
// compressed by codec. Entries are keyed by voice and text, so changing the
// model or voice never serves stale audio. Cache failures fall through to the
// wrapped synthesizer.
type CachedSynthesizer struct {
	next  Synthesizer
	kv    kvstore.Store
	codec audio.Codec
	voice string
}

// NewCachedSynthesizer wraps next. voice identifies the model and voice that
// next speaks with, for example "gemini-2.5-flash-preview-tts/Kore".
func NewCachedSynthesizer(next Synthesizer, kv kvstore.Store, codec audio.Codec, voice string) *CachedSynthesizer {
	return &CachedSynthesizer{next: next, kv: kv, codec: codec, voice: voice}
}

func (c *CachedSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	key := cacheKey(c.voice, text)
	if payload, ok := c.lookup(ctx, key); ok {
		slog.Debug("speech cache hit", "cache_key", key)
		return payload, nil
	}

	payload, err := c.next.Synthesize(ctx, text)
	if err != nil || payload == "" {
		return payload, err
	}
	c.store(ctx, key, payload)
	return payload, nil
}

func (c *CachedSynthesizer) lookup(ctx context.Context, key string) (string, bool) {
	stored, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		slog.Warn("failed to read speech cache", "cache_key", key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	encoded, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		slog.Warn("speech cache entry is corrupt", "cache_key", key, "error", err)
		return "", false
	}
	pcm, err := c.codec.Decode(encoded)
	if err != nil {
		slog.Warn("speech cache entry could not be decoded", "cache_key", key, "error", err)
		return "", false
	}
	return base64.StdEncoding.EncodeToString(pcm), true
}

func (c *CachedSynthesizer) store(ctx context.Context, key, payload string) {
	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		slog.Warn("synthesized payload is not base64; not caching", "error", err)
		return
	}
	encoded, err := c.codec.Encode(pcm)
	if err != nil {
		slog.Warn("failed to encode speech for cache", "error", err)
		return
	}
	if err := c.kv.Set(ctx, key, base64.StdEncoding.EncodeToString(encoded)); err != nil {
		slog.Warn("failed to write speech cache", "cache_key", key, "error", err)
	}
}

func cacheKey(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return kvstore.KeySpeechPrefix + hex.EncodeToString(sum[:])
}
