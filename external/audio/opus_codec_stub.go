//go:build !opus

package audio

import "github.com/foxseedlab/kissandost/internal/audio"

// identityCodec stores PCM unchanged when built without libopus.
type identityCodec struct{}

func NewCodec() audio.Codec {
	return identityCodec{}
}

func (identityCodec) Encode(pcm []byte) ([]byte, error) {
	return pcm, nil
}

func (identityCodec) Decode(data []byte) ([]byte, error) {
	return data, nil
}
