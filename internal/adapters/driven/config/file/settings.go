package file

import (
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Configuration keys. Nested TOML tables flatten to these dotted
// names; each also has a KBSYNC_* environment override.
const (
	KeyWatchDir                = "watch.dir"
	KeyWatchExtensions         = "watch.extensions"
	KeyWatchProcessInterval    = "watch.process_interval_seconds"
	KeyWatchStabilisationDelay = "watch.stabilisation_seconds"

	KeyRemoteBaseURL        = "remote.base_url"
	KeyRemoteTimeout        = "remote.timeout_seconds"
	KeyRemoteDatasetAPIKey  = "remote.dataset_api_key"
	KeyRemoteChatflowAPIKey = "remote.chatflow_api_key"

	KeyCollectionIndex       = "collections.index_id"
	KeyCollectionOriginal    = "collections.original_id"
	KeyCollectionParentChild = "collections.parent_child_id"
	KeyParentChildEnabled    = "collections.parent_child"

	KeyUploadBackend  = "upload.backend"
	KeyUploadMaxBytes = "upload.max_bytes"

	KeySummaryMaxLength      = "summary.max_length"
	KeyContentTruncateLength = "summary.content_truncate"

	KeyServerAddr  = "server.addr"
	KeyLogFile     = "log.file"
	KeyJournalPath = "journal.path"
)

// LoadSettings builds domain settings from the store, applying
// defaults for everything unset. Validation is the caller's business.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	s := domain.DefaultSettings()

	s.MonitorDir = store.GetString(KeyWatchDir)
	if exts := store.GetStringSlice(KeyWatchExtensions); len(exts) > 0 {
		s.AllowedExtensions = exts
	}
	if secs := store.GetInt(KeyWatchProcessInterval); secs > 0 {
		s.ProcessInterval = time.Duration(secs) * time.Second
	}
	if secs := store.GetInt(KeyWatchStabilisationDelay); secs > 0 {
		s.StabilisationDelay = time.Duration(secs) * time.Second
	}

	s.BaseURL = store.GetString(KeyRemoteBaseURL)
	if secs := store.GetInt(KeyRemoteTimeout); secs > 0 {
		s.RequestTimeout = time.Duration(secs) * time.Second
	}
	s.DatasetAPIKey = store.GetString(KeyRemoteDatasetAPIKey)
	s.ChatflowAPIKey = store.GetString(KeyRemoteChatflowAPIKey)

	s.IndexCollectionID = store.GetString(KeyCollectionIndex)
	s.OriginalCollectionID = store.GetString(KeyCollectionOriginal)
	s.ParentChildCollectionID = store.GetString(KeyCollectionParentChild)
	s.ParentChildEnabled = store.GetBool(KeyParentChildEnabled)

	if backend := store.GetString(KeyUploadBackend); backend != "" {
		s.UploadBackend = backend
	}
	if maxBytes := store.GetInt(KeyUploadMaxBytes); maxBytes > 0 {
		s.MaxUploadBytes = int64(maxBytes)
	}

	if n := store.GetInt(KeySummaryMaxLength); n > 0 {
		s.SummaryMaxLength = n
	}
	if n := store.GetInt(KeyContentTruncateLength); n > 0 {
		s.ContentTruncateLength = n
	}

	s.ServerAddr = store.GetString(KeyServerAddr)
	s.LogFile = store.GetString(KeyLogFile)
	s.JournalPath = store.GetString(KeyJournalPath)
	return s
}
