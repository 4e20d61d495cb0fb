package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxBytes     = 5 << 20
	DefaultMaxDimension = 3840
)

var (
	ErrEmpty       = errors.New("media: empty image data")
	ErrTooLarge    = errors.New("media: image exceeds maximum size")
	ErrUnsupported = errors.New("media: unsupported image format")
	ErrDimensions  = errors.New("media: image dimensions out of range")
)

var formats = map[string]struct {
	contentType string
	extension   string
}{
	"jpeg": {"image/jpeg", ".jpg"},
	"png":  {"image/png", ".png"},
	"gif":  {"image/gif", ".gif"},
	"webp": {"image/webp", ".webp"},
}

type Image struct {
	Bytes       []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Inspector validates uploaded profile pictures. The declared content type
// of an upload is ignored; the format is sniffed from the image header.
type Inspector struct {
	maxBytes     int64
	maxDimension int
}

func NewInspector(maxBytes int64, maxDimension int) *Inspector {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Inspector{maxBytes: maxBytes, maxDimension: maxDimension}
}

func (i *Inspector) MaxBytes() int64 { return i.maxBytes }

func (i *Inspector) Inspect(r io.Reader) (*Image, error) {
	if r == nil {
		return nil, ErrEmpty
	}
	data, err := io.ReadAll(io.LimitReader(r, i.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > i.maxBytes {
		return nil, ErrTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	meta, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > i.maxDimension || cfg.Height > i.maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, cfg.Width, cfg.Height)
	}

	return &Image{
		Bytes:       data,
		ContentType: meta.contentType,
		Extension:   meta.extension,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
