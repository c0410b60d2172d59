//go:build opus

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/foxseedlab/kissandost/internal/audio"
	"github.com/hraban/opus"
)

const (
	sampleRate      = audio.SourceSampleRate
	channels        = 1
	frameSizeMs     = 20
	samplesPerFrame = sampleRate * frameSizeMs * channels / 1000
	maxPacketBytes  = 4000
)

var errCorruptPacket = errors.New("corrupt opus payload")

// OpusCodec stores 24 kHz mono speech as length-prefixed Opus packets after a
// little-endian sample count.
type OpusCodec struct{}

func NewCodec() audio.Codec {
	return OpusCodec{}
}

func (OpusCodec) Encode(pcm []byte) ([]byte, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	samples := toInt16(pcm)
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(samples)))
	packet := make([]byte, maxPacketBytes)
	frame := make([]int16, samplesPerFrame)
	for off := 0; off < len(samples); off += samplesPerFrame {
		clear(frame)
		copy(frame, samples[off:])
		n, err := enc.Encode(frame, packet)
		if err != nil {
			return nil, fmt.Errorf("encode opus frame: %w", err)
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(n))
		out = append(out, packet[:n]...)
	}
	return out, nil
}

func (OpusCodec) Decode(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, errCorruptPacket
	}
	total := int(binary.LittleEndian.Uint32(data))
	data = data[4:]
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	samples := make([]int16, 0, total)
	frame := make([]int16, samplesPerFrame)
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, errCorruptPacket
		}
		n := int(binary.LittleEndian.Uint16(data))
		data = data[2:]
		if n > len(data) {
			return nil, errCorruptPacket
		}
		got, err := dec.Decode(data[:n], frame)
		if err != nil {
			return nil, fmt.Errorf("decode opus frame: %w", err)
		}
		samples = append(samples, frame[:got*channels]...)
		data = data[n:]
	}
	if len(samples) > total {
		samples = samples[:total]
	}
	return fromInt16(samples), nil
}

func toInt16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}

func fromInt16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}
