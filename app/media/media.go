// Package media stores uploaded images in an S3-compatible bucket.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 5 << 20

var (
	ErrTooLarge        = errors.New("file exceeds 5MB limit")
	ErrUnsupportedType = errors.New("only image uploads are allowed")
	ErrEmpty           = errors.New("file is empty")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Object describes a stored file.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store persists uploaded images.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*Object, error)
}

// Image is a validated upload ready to be written.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

// ReadImage reads at most MaxUploadSize bytes from r and checks that they
// hold a supported image. The declared filename only contributes a fallback
// extension; the type always comes from the content.
func ReadImage(filename string, r io.Reader, now time.Time) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return nil, ErrUnsupportedType
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	return &Image{
		Key:         ObjectKey(now, ext),
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}

// ObjectKey names a new object: images/<yyyy>/<mm>/<uuid><ext>.
func ObjectKey(now time.Time, ext string) string {
	return fmt.Sprintf("images/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// Reader returns the image bytes as a reader.
func (img *Image) Reader() io.Reader {
	return bytes.NewReader(img.Data)
}

// Size returns the image size in bytes.
func (img *Image) Size() int64 {
	return int64(len(img.Data))
}
