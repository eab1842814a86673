// Package images validates bookshelf photos before they reach a vision model.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"strings"
)

// MaxBytes is the largest decoded photo accepted
const MaxBytes = 10 << 20

var (
	ErrEmpty       = errors.New("image is empty")
	ErrTooLarge    = errors.New("image exceeds the size limit")
	ErrNotAnImage  = errors.New("data is not an image")
	ErrBadEncoding = errors.New("image is not valid base64")
)

// Image is a decoded photo
type Image struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	// Hash is the hex sha256 of Data
	Hash string
}

// DecodeBase64 decodes a base64 photo, with or without a data: URL header
func DecodeBase64(encoded string, maxBytes int) (*Image, error) {
	if maxBytes <= 0 {
		maxBytes = MaxBytes
	}

	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		if _, rest, ok := strings.Cut(payload, ","); ok {
			payload = rest
		}
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)
	if payload == "" {
		return nil, ErrEmpty
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+3 {
		return nil, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, ErrBadEncoding
		}
	}
	return FromBytes(data, maxBytes)
}

// FromBytes validates raw image bytes
func FromBytes(data []byte, maxBytes int) (*Image, error) {
	if maxBytes <= 0 {
		maxBytes = MaxBytes
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > maxBytes {
		return nil, ErrTooLarge
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mime)
	}

	sum := sha256.Sum256(data)
	img := &Image{
		Data:     data,
		MIMEType: mime,
		Hash:     hex.EncodeToString(sum[:]),
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Failed to get image dimensions", "mime", mime, "error", err)
	} else {
		img.Width, img.Height = cfg.Width, cfg.Height
	}

	return img, nil
}
