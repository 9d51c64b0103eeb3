package driven

import (
	"context"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// Uploader pushes local files into remote knowledge-base collections.
type Uploader interface {
	// Upload pushes the file at localPath into the target collection.
	// A nil return means the remote side accepted the document.
	Upload(ctx context.Context, localPath string, target domain.UploadTarget) error
}

// UploadRequest is the prepared payload handed to a backend: content
// already read, oversized files already rejected, legacy formats
// already converted.
type UploadRequest struct {
	// CollectionID is the destination collection.
	CollectionID string

	// FileName is the name the remote side stores the document under.
	FileName string

	// MIMEType is the content type sent with the payload.
	MIMEType string

	// Content is the full document payload.
	Content []byte

	// ParentChild requests hierarchical chunking on the remote side.
	ParentChild bool
}

// UploadBackend is one concrete variant of the remote upload contract.
// Exactly one backend is active per deployment.
type UploadBackend interface {
	// Name returns the backend's configuration name.
	Name() string

	// Upload performs the remote calls for one prepared request.
	Upload(ctx context.Context, req *UploadRequest) error
}
