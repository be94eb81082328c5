package model

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Storage is a blob store for sealed attachments and approval photos.
// Download of a missing key returns an error wrapping ErrNotFound.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AttachmentBlobKey is where the sealed attachment of a message is stored.
func AttachmentBlobKey(messageID uuid.UUID) string {
	return "attachments/" + messageID.String()
}

// PhotoBlobKey is where the receiver photo of an approval request is stored.
func PhotoBlobKey(requestID uuid.UUID) string {
	return "photos/" + requestID.String()
}
