package driven

import "context"

// KBDocument is one document listed by the remote knowledge base.
type KBDocument struct {
	// ID is the remote document identifier.
	ID string

	// Name is the remote document name.
	Name string

	// Content is the document text as stored remotely. Index records
	// round-trip through it.
	Content string
}

// KnowledgeSearcher queries the remote knowledge base.
type KnowledgeSearcher interface {
	// SearchDocuments lists documents in the collection matching the
	// keyword, up to limit.
	SearchDocuments(ctx context.Context, collectionID, keyword string, limit int) ([]KBDocument, error)

	// Ping verifies the remote endpoint and credentials are usable.
	Ping(ctx context.Context) error
}
