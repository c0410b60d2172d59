package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
)

// SourceSampleRate is the rate of synthesized speech payloads.
const SourceSampleRate = 24000

var ErrDecode = errors.New("failed to decode pcm payload")

// DecodePCM16LE turns a base64 payload of signed 16-bit little-endian mono
// PCM into samples in [-1, 1]. A trailing odd byte is dropped.
func DecodePCM16LE(payload string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return SamplesFromPCM16LE(raw), nil
}

// SamplesFromPCM16LE pairs bytes explicitly so the result does not depend on
// host byte order.
func SamplesFromPCM16LE(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		lo := int32(raw[2*i])
		hi := int32(raw[2*i+1])
		sample := hi<<8 | lo
		if sample&0x8000 != 0 {
			sample -= 65536
		}
		out[i] = float32(sample) / 32768.0
	}
	return out
}

// EncodePCM16LE is the inverse of SamplesFromPCM16LE; values outside [-1, 1]
// are clipped.
func EncodePCM16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(math.Round(float64(s) * 32768.0))
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
