package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EventKind is the kind of filesystem change that triggered processing.
type EventKind int

const (
	// EventCreated indicates a new file appeared in the monitored directory.
	EventCreated EventKind = iota

	// EventModified indicates an existing file was written to.
	EventModified
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	default:
		return "unknown"
	}
}

// FileEvent is a single filesystem observation. It is produced by the
// watcher and consumed exactly once by the debounce gate.
type FileEvent struct {
	// Path is the absolute path of the affected file.
	Path string

	// Kind is the kind of change observed.
	Kind EventKind

	// ObservedAt is when the watcher saw the event.
	ObservedAt time.Time
}

// Fingerprint identifies a logical file state: the same path with the
// same size and modification time is the same fingerprint. It is the
// dedup key of the debounce gate and the unit of mutual exclusion for
// pipeline runs.
type Fingerprint struct {
	// Path is the absolute file path.
	Path string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the file modification time.
	ModTime time.Time
}

// FingerprintOf stats the file and builds its fingerprint.
// If the stat fails the fingerprint degrades to path-only, so an
// unreadable file still gets a usable dedup key.
func FingerprintOf(path string) Fingerprint {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Fingerprint{Path: abs}
	}
	return Fingerprint{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// Key returns the map key form of the fingerprint.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%s_%d_%d", f.Path, f.Size, f.ModTime.UnixNano())
}

// FileInfo carries the metadata of a source file that ends up in the
// index record.
type FileInfo struct {
	// Name is the base file name.
	Name string

	// Path is the absolute file path.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Extension is the lowercased extension including the dot.
	Extension string

	// CreatedAt is the best-effort creation time. Filesystems that do
	// not record birth time fall back to the modification time.
	CreatedAt time.Time

	// UpdatedAt is the modification time.
	UpdatedAt time.Time
}

// FileInfoOf stats the file and extracts its metadata.
func FileInfoOf(path string) (*FileInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	name := filepath.Base(abs)
	return &FileInfo{
		Name:      name,
		Path:      abs,
		Size:      info.Size(),
		Extension: strings.ToLower(filepath.Ext(name)),
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// imageExtensions is the fixed set of extensions treated as images.
// Image files never upload their original bytes; only the index record
// is pushed.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
}

// IsImageExtension reports whether the lowercased extension is an image
// format.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}
