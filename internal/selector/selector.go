// Package selector turns a user-picked image into a SelectedFile and its preview.
package selector

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
)

// Accept is the value for the page's file input accept attribute.
const Accept = "image/png, image/jpeg"

var AcceptedTypes = []string{"image/png", "image/jpeg"}

var (
	ErrUnsupportedType = errors.New("only PNG and JPEG images are accepted")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")
)

type Selector struct {
	maxBytes int64
}

func New(maxBytes int64) *Selector {
	return &Selector{maxBytes: maxBytes}
}

func (s *Selector) MaxBytes() int64 {
	return s.maxBytes
}

// Read consumes an uploaded file. The content type is sniffed from the bytes,
// not trusted from the client.
func (s *Selector) Read(name string, r io.Reader) (*models.SelectedFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrFileTooLarge, s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	if !slices.Contains(AcceptedTypes, contentType) {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedType, contentType)
	}

	return &models.SelectedFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Preview encodes the file as a data URI. Dimensions are best effort.
func Preview(f *models.SelectedFile) *models.PreviewImage {
	preview := &models.PreviewImage{
		DataURI:     "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		ContentType: f.ContentType,
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		slog.Warn("Failed to get image dimensions", "file", f.Name, "error", err)
		return preview
	}
	preview.Width = cfg.Width
	preview.Height = cfg.Height
	return preview
}

// DecodeDataURI returns the bytes and media type held in a base64 data URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := bytes.CutPrefix([]byte(uri), []byte("data:"))
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := bytes.Cut(rest, []byte(","))
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	mediaType, isBase64 := bytes.CutSuffix(meta, []byte(";base64"))
	if !isBase64 {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, string(mediaType), nil
}
