//go:build opus

package audio

import (
	"math"
	"testing"
)

func TestOpusCodec_PreservesLength(t *testing.T) {
	samples := make([]int16, 24000/2+17)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/24000))
	}
	pcm := fromInt16(samples)

	codec := NewCodec()
	encoded, err := codec.Encode(pcm)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(encoded) >= len(pcm) {
		t.Fatalf("expected compression, got %d bytes from %d", len(encoded), len(pcm))
	}
	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != len(pcm) {
		t.Fatalf("expected %d bytes, got %d", len(pcm), len(decoded))
	}
}

func TestOpusCodec_RejectsTruncated(t *testing.T) {
	if _, err := NewCodec().Decode([]byte{1, 0}); err == nil {
		t.Fatal("expected truncated payload to fail")
	}
}
