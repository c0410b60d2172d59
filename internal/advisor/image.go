package advisor

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultImageMIMEType = "image/jpeg"

// ParseImage accepts either a data URL ("data:image/png;base64,...") or bare
// base64. Bare payloads are assumed to be JPEG.
func ParseImage(encoded string) (*Image, error) {
	mime := defaultImageMIMEType
	payload := strings.TrimSpace(encoded)
	if head, data, ok := strings.Cut(payload, ";base64,"); ok {
		if m := strings.TrimPrefix(head, "data:"); m != "" {
			mime = m
		}
		payload = data
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid image encoding: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	return &Image{Data: data, MIMEType: mime}, nil
}

// DataURL renders the image the way it is stored on a message.
func (img *Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
