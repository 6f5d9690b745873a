// Package storage holds submitted issue images. The store is an external
// collaborator of the triage pipeline: intake writes an image once and the
// classifier reads it back by reference.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotFound is returned when a reference does not resolve to a stored image.
var ErrNotFound = errors.New("image not found")

// ErrInvalidRef is returned for references that could escape the store root.
var ErrInvalidRef = errors.New("invalid image reference")

// Image is a stored image with its sniffed MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageStore persists images and resolves references back to bytes.
type ImageStore interface {
	Put(ctx context.Context, ownerID string, data []byte) (ref string, err error)
	Get(ctx context.Context, ref string) (*Image, error)
}

// DetectImageType sniffs data and reports its MIME type and whether it is an image.
func DetectImageType(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	return mt.String(), strings.HasPrefix(mt.String(), "image/")
}
