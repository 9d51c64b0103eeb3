package domain

import (
	"fmt"
	"strings"
	"time"
)

// Index filename suffixes. The suffix encodes summary provenance so
// downstream consumers can judge analysis quality without reading the
// record.
const (
	// ChatflowIndexSuffix marks an index produced by the remote AI.
	ChatflowIndexSuffix = "_chatflow_index"

	// FallbackIndexSuffix marks an index produced by local heuristics.
	FallbackIndexSuffix = "_fallback_index"

	// PlainIndexSuffix is the legacy suffix still recognised as
	// generated output.
	PlainIndexSuffix = "_index"
)

// SkipMarkers are the filename substrings that mark a file as the
// pipeline's own output (or an editor artefact) and exclude it from
// processing.
var SkipMarkers = []string{
	"_summary",
	PlainIndexSuffix,
	"_workflow",
	"_dify",
	"_chatflow",
	"~$",
	"_converted",
}

// Index record field labels. The line-oriented, colon-delimited shape
// is a fixed external contract: existing consumers parse these labels.
const (
	labelFileName  = "文件名"
	labelFilePath  = "文件路径"
	labelCreatedAt = "创建时间"
	labelUpdatedAt = "修改时间"
	labelDocType   = "文件类型"
	labelSummary   = "内容总结"
)

// indexTimeLayout is the timestamp format used inside index records.
const indexTimeLayout = "2006-01-02 15:04:05"

// IndexRecord is the durable artefact of summarisation: a normalised
// description of one source file, written beside the monitored
// directory and uploaded to the index collection.
type IndexRecord struct {
	// FileName is the base name of the source file.
	FileName string

	// FilePath is the absolute path of the source file.
	FilePath string

	// CreatedAt is the source file creation time.
	CreatedAt time.Time

	// UpdatedAt is the source file modification time.
	UpdatedAt time.Time

	// DocType is the document category.
	DocType string

	// Summary is the enhanced, length-bounded content summary.
	Summary string

	// Fingerprint identifies the file state the record was built from.
	Fingerprint Fingerprint

	// Source records which engine produced the summary.
	Source SummarySource
}

// Suffix returns the index filename suffix for the record's provenance.
func (r *IndexRecord) Suffix() string {
	if r.Source == SummaryRemoteAI {
		return ChatflowIndexSuffix
	}
	return FallbackIndexSuffix
}

// Format serialises the record in the fixed line-oriented shape.
func (r *IndexRecord) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", labelFileName, r.FileName)
	fmt.Fprintf(&b, "%s: %s\n", labelFilePath, r.FilePath)
	fmt.Fprintf(&b, "%s: %s\n", labelCreatedAt, r.CreatedAt.Format(indexTimeLayout))
	fmt.Fprintf(&b, "%s: %s\n", labelUpdatedAt, r.UpdatedAt.Format(indexTimeLayout))
	fmt.Fprintf(&b, "%s: %s\n", labelDocType, r.DocType)
	fmt.Fprintf(&b, "%s: %s", labelSummary, r.Summary)
	return b.String()
}

// ParseIndexRecord parses the line-oriented record shape back into a
// record. Unknown lines are ignored; timestamps that fail to parse are
// left zero. The fingerprint is not serialised and is not recovered.
func ParseIndexRecord(text string) (*IndexRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	r := &IndexRecord{}
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(label) {
		case labelFileName:
			r.FileName = value
		case labelFilePath:
			r.FilePath = value
		case labelCreatedAt:
			if t, err := time.ParseInLocation(indexTimeLayout, value, time.Local); err == nil {
				r.CreatedAt = t
			}
		case labelUpdatedAt:
			if t, err := time.ParseInLocation(indexTimeLayout, value, time.Local); err == nil {
				r.UpdatedAt = t
			}
		case labelDocType:
			r.DocType = value
		case labelSummary:
			r.Summary = value
		}
	}

	if r.FileName == "" {
		return nil, fmt.Errorf("%w: missing %s label", ErrInvalidInput, labelFileName)
	}
	return r, nil
}

// IsGeneratedName reports whether the file name contains any skip
// marker, i.e. it is pipeline output or an editor artefact.
func IsGeneratedName(name string) bool {
	for _, marker := range SkipMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
