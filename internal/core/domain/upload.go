package domain

// UploadMode selects how the remote collection stores a document.
type UploadMode string

const (
	// UploadModeFlat stores the document with the collection's plain
	// default chunking.
	UploadModeFlat UploadMode = "flat"

	// UploadModeParentChild stores the document in a collection
	// configured for hierarchical (parent-child) chunking.
	UploadModeParentChild UploadMode = "parent-child"
)

// UploadTarget names one destination collection. Two fixed targets
// exist per deployment: the index collection (index records only) and
// the original-file collection (original bytes, never images).
type UploadTarget struct {
	// CollectionID is the remote collection identifier.
	CollectionID string

	// Mode selects flat or parent-child storage on the remote side.
	Mode UploadMode
}

// Backend names select which upload contract variant is active.
// Exactly one backend is active per deployment.
const (
	// BackendCreateByFile uses the single-call create-by-file contract.
	BackendCreateByFile = "create-by-file"

	// BackendTwoStep uploads raw bytes first, then creates the document
	// record from the returned file handle.
	BackendTwoStep = "two-step"

	// BackendSession uses the console API with cookie/CSRF auth, for
	// deployments without an API key.
	BackendSession = "session"
)
