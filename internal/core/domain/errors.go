package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Gate errors. All of them mean "do not run the pipeline for this
	// event"; only ErrStillWriting leaves the file eligible for the
	// next filesystem event.

	// ErrSkipped indicates the file is filtered out by name marker or
	// extension and will never be processed.
	ErrSkipped = errors.New("file skipped by gate")

	// ErrRecentlyProcessed indicates an identical fingerprint was
	// processed within the configured interval.
	ErrRecentlyProcessed = errors.New("fingerprint recently processed")

	// ErrInFlight indicates a lease for the fingerprint is currently held.
	ErrInFlight = errors.New("fingerprint already in flight")

	// ErrStillWriting indicates the file size changed during the
	// stabilisation check. The attempt is abandoned without marking the
	// fingerprint processed, so the next event retries it.
	ErrStillWriting = errors.New("file still being written")

	// Conversion errors.

	// ErrConversionFailed indicates no conversion strategy produced a
	// readable document for a legacy binary file.
	ErrConversionFailed = errors.New("legacy document conversion failed")

	// ErrNoExternalTool indicates no external extraction tool is
	// installed or all of them failed.
	ErrNoExternalTool = errors.New("no external extraction tool available")

	// Upload errors. The uploader classifies non-2xx responses into
	// these categories by scanning the response body.

	// ErrFileTooLarge indicates the file exceeds the upload size cap and
	// no network call was attempted.
	ErrFileTooLarge = errors.New("file exceeds upload size limit")

	// ErrSegmentationMismatch indicates the collection's segmentation
	// mode rejected the document format.
	ErrSegmentationMismatch = errors.New("document format conflicts with collection segmentation mode")

	// ErrIndexingTechniqueMismatch indicates the indexing technique
	// directive conflicts with the collection configuration.
	ErrIndexingTechniqueMismatch = errors.New("indexing technique rejected by collection")

	// ErrCollectionNotFound indicates the collection does not exist or
	// the credentials have no access to it.
	ErrCollectionNotFound = errors.New("collection not found or not permitted")

	// ErrUnauthorised indicates the credentials were rejected.
	ErrUnauthorised = errors.New("authentication rejected")

	// ErrUploadRejected is the generic category for any other non-2xx
	// upload response.
	ErrUploadRejected = errors.New("upload rejected by remote store")

	// ErrSessionInvalid indicates the console session cookie or CSRF
	// token is no longer accepted.
	ErrSessionInvalid = errors.New("console session invalid")
)
