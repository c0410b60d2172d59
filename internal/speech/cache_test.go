package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/foxseedlab/kissandost/internal/kvstore"
)

const testVoice = "tts-model/Kore"

type countingSynthesizer struct {
	payload string
	err     error
	calls   int
}

func (s *countingSynthesizer) Synthesize(context.Context, string) (string, error) {
	s.calls++
	return s.payload, s.err
}

// xorCodec makes the stored form differ from the payload.
type xorCodec struct{}

func (xorCodec) Encode(pcm []byte) ([]byte, error)  { return xor(pcm), nil }
func (xorCodec) Decode(data []byte) ([]byte, error) { return xor(data), nil }

func xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ 0x5a
	}
	return out
}

func TestCachedSynthesizer_StoresAndReuses(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	next := &countingSynthesizer{payload: payload}
	kv := kvstore.NewMemory()
	c := NewCachedSynthesizer(next, kv, xorCodec{}, testVoice)

	for range 2 {
		got, err := c.Synthesize(t.Context(), "Apply fungicide")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != payload {
			t.Fatalf("expected %q, got %q", payload, got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}

	stored, ok, _ := kv.Get(t.Context(), cacheKey(testVoice, "Apply fungicide"))
	if !ok || stored == payload {
		t.Fatalf("expected encoded cache entry, got %q", stored)
	}
	if !strings.HasPrefix(cacheKey(testVoice, "x"), kvstore.KeySpeechPrefix) {
		t.Fatalf("unexpected cache key: %s", cacheKey(testVoice, "x"))
	}
}

func TestCachedSynthesizer_DoesNotCacheEmptyPayload(t *testing.T) {
	next := &countingSynthesizer{}
	c := NewCachedSynthesizer(next, kvstore.NewMemory(), xorCodec{}, testVoice)

	for range 2 {
		got, err := c.Synthesize(t.Context(), "hello")
		if err != nil || got != "" {
			t.Fatalf("expected empty payload, got %q, %v", got, err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected every call to reach upstream, got %d", next.calls)
	}
}

func TestCachedSynthesizer_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	c := NewCachedSynthesizer(&countingSynthesizer{err: boom}, kvstore.NewMemory(), xorCodec{}, testVoice)
	if _, err := c.Synthesize(t.Context(), "hello"); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCachedSynthesizer_CorruptEntryFallsThrough(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{9, 9})
	next := &countingSynthesizer{payload: payload}
	kv := kvstore.NewMemory()
	_ = kv.Set(t.Context(), cacheKey(testVoice, "hello"), "%%%")
	c := NewCachedSynthesizer(next, kv, xorCodec{}, testVoice)

	got, err := c.Synthesize(t.Context(), "hello")
	if err != nil || got != payload {
		t.Fatalf("expected upstream payload, got %q, %v", got, err)
	}
	if next.calls != 1 {
		t.Fatalf("expected upstream call, got %d", next.calls)
	}
}

func TestCachedSynthesizer_VoiceChangeMissesCache(t *testing.T) {
	kv := kvstore.NewMemory()
	kore := &countingSynthesizer{payload: base64.StdEncoding.EncodeToString([]byte{1, 1})}
	if _, err := NewCachedSynthesizer(kore, kv, xorCodec{}, "tts-model/Kore").Synthesize(t.Context(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	puckPayload := base64.StdEncoding.EncodeToString([]byte{2, 2})
	puck := &countingSynthesizer{payload: puckPayload}
	got, err := NewCachedSynthesizer(puck, kv, xorCodec{}, "tts-model/Puck").Synthesize(t.Context(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != puckPayload || puck.calls != 1 {
		t.Fatalf("expected audio in the new voice, got %q after %d calls", got, puck.calls)
	}
	if cacheKey("tts-model/Kore", "hello") == cacheKey("tts-model/Puck", "hello") {
		t.Fatal("cache keys must differ per voice")
	}
}
