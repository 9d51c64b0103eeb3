package domain

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Default configuration values.
const (
	// DefaultProcessInterval is how long a processed fingerprint stays
	// in the dedup map.
	DefaultProcessInterval = 5 * time.Second

	// DefaultStabilisationDelay is each of the two waits of the
	// write-stability check.
	DefaultStabilisationDelay = 2 * time.Second

	// DefaultRequestTimeout bounds the summarisation and upload HTTP
	// calls.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultSummaryMaxLength bounds the enhanced summary embedded into
	// an index record, in runes.
	DefaultSummaryMaxLength = 250

	// DefaultContentTruncateLength bounds the extracted text sent to
	// the remote summariser, in runes.
	DefaultContentTruncateLength = 4000

	// DefaultMaxUploadBytes is the upload size cap.
	DefaultMaxUploadBytes = 100 * 1024 * 1024
)

// DefaultAllowedExtensions is the default extension allow-list.
var DefaultAllowedExtensions = []string{
	".txt", ".docx", ".doc", ".pdf", ".pptx", ".xlsx", ".csv", ".md",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff",
}

// Settings is the validated runtime configuration of the daemon.
type Settings struct {
	// MonitorDir is the watched directory. Must exist at startup.
	MonitorDir string

	// AllowedExtensions is the lowercased extension allow-list.
	AllowedExtensions []string

	// ProcessInterval is the dedup time-to-live of the gate.
	ProcessInterval time.Duration

	// StabilisationDelay is each wait of the write-stability check.
	StabilisationDelay time.Duration

	// BaseURL is the remote store and chat endpoint base URL.
	BaseURL string

	// DatasetAPIKey authenticates document-store calls.
	DatasetAPIKey string

	// ChatflowAPIKey authenticates chat-endpoint calls.
	ChatflowAPIKey string

	// IndexCollectionID receives index records.
	IndexCollectionID string

	// OriginalCollectionID receives original files in flat mode.
	OriginalCollectionID string

	// ParentChildCollectionID receives original files when parent-child
	// mode is enabled.
	ParentChildCollectionID string

	// ParentChildEnabled switches original uploads to the parent-child
	// collection.
	ParentChildEnabled bool

	// UploadBackend selects the active upload contract variant.
	UploadBackend string

	// ContentTruncateLength bounds text sent to the summariser, in runes.
	ContentTruncateLength int

	// SummaryMaxLength bounds the enhanced summary, in runes.
	SummaryMaxLength int

	// RequestTimeout bounds the remote HTTP calls.
	RequestTimeout time.Duration

	// MaxUploadBytes is the upload size cap.
	MaxUploadBytes int64

	// ServerAddr is the listen address of the local open/search API.
	// Empty disables the server.
	ServerAddr string

	// LogFile receives the JSON log stream. Empty disables file logging.
	LogFile string

	// JournalPath is the sqlite sync journal location. Empty disables
	// the journal.
	JournalPath string
}

// DefaultSettings returns settings with every default applied. The
// caller still has to supply MonitorDir, BaseURL, credentials and
// collection IDs.
func DefaultSettings() Settings {
	return Settings{
		AllowedExtensions:     append([]string(nil), DefaultAllowedExtensions...),
		ProcessInterval:       DefaultProcessInterval,
		StabilisationDelay:    DefaultStabilisationDelay,
		UploadBackend:         BackendCreateByFile,
		ContentTruncateLength: DefaultContentTruncateLength,
		SummaryMaxLength:      DefaultSummaryMaxLength,
		RequestTimeout:        DefaultRequestTimeout,
		MaxUploadBytes:        DefaultMaxUploadBytes,
	}
}

// Validate checks that the settings are usable. Configuration failures
// are fatal at startup: the watcher refuses to run with undefined
// behaviour.
func (s *Settings) Validate() error {
	if s.MonitorDir == "" {
		return fmt.Errorf("%w: monitor directory not configured", ErrInvalidInput)
	}
	info, err := os.Stat(s.MonitorDir)
	if err != nil {
		return fmt.Errorf("monitor directory %q: %w", s.MonitorDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: monitor path %q is not a directory", ErrInvalidInput, s.MonitorDir)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("%w: remote base URL not configured", ErrInvalidInput)
	}
	if s.IndexCollectionID == "" {
		return fmt.Errorf("%w: index collection ID not configured", ErrInvalidInput)
	}
	if s.OriginalCollectionID == "" && !s.ParentChildEnabled {
		return fmt.Errorf("%w: original-file collection ID not configured", ErrInvalidInput)
	}
	if s.ParentChildEnabled && s.ParentChildCollectionID == "" {
		return fmt.Errorf("%w: parent-child mode enabled without a collection ID", ErrInvalidInput)
	}
	switch s.UploadBackend {
	case BackendCreateByFile, BackendTwoStep, BackendSession:
	default:
		return fmt.Errorf("%w: unknown upload backend %q", ErrInvalidInput, s.UploadBackend)
	}
	if len(s.AllowedExtensions) == 0 {
		return fmt.Errorf("%w: extension allow-list is empty", ErrInvalidInput)
	}
	if s.ProcessInterval <= 0 {
		return fmt.Errorf("%w: process interval must be positive", ErrInvalidInput)
	}
	return nil
}

// ExtensionAllowed reports whether the lowercased extension is in the
// allow-list.
func (s *Settings) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range s.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// IndexTarget returns the destination of index records.
func (s *Settings) IndexTarget() UploadTarget {
	return UploadTarget{CollectionID: s.IndexCollectionID, Mode: UploadModeFlat}
}

// OriginalTarget returns the destination of original files, selecting
// the parent-child collection when that mode is enabled.
func (s *Settings) OriginalTarget() UploadTarget {
	if s.ParentChildEnabled && s.ParentChildCollectionID != "" {
		return UploadTarget{CollectionID: s.ParentChildCollectionID, Mode: UploadModeParentChild}
	}
	return UploadTarget{CollectionID: s.OriginalCollectionID, Mode: UploadModeFlat}
}
