package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// summaryPrefixFormat wraps every enhanced summary so retrieval hits on
// the file name as well as the content.
const summaryPrefixFormat = "文件【%s】相关内容："

// degenerateFormat replaces summaries that carry no usable content.
const degenerateFormat = "文件【%s】相关文档"

// IndexBuilder turns file metadata and a summary into an index record
// and writes it beside the source file.
type IndexBuilder struct {
	maxSummaryRunes int
}

// NewIndexBuilder creates a builder whose enhanced summaries are capped
// at maxSummaryRunes.
func NewIndexBuilder(maxSummaryRunes int) *IndexBuilder {
	if maxSummaryRunes <= 0 {
		maxSummaryRunes = domain.DefaultSummaryMaxLength
	}
	return &IndexBuilder{maxSummaryRunes: maxSummaryRunes}
}

// Enhance wraps the summary with the file-name prefix and bounds its
// length. The prefix always survives truncation; a summary that ends up
// with no body degenerates to a fixed document marker.
func (b *IndexBuilder) Enhance(fileName, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Sprintf(degenerateFormat, fileName)
	}

	prefix := fmt.Sprintf(summaryPrefixFormat, fileName)
	enhanced := prefix + summary
	runes := []rune(enhanced)
	if len(runes) <= b.maxSummaryRunes {
		return enhanced
	}

	prefixRunes := []rune(prefix)
	budget := b.maxSummaryRunes - len(prefixRunes)
	if budget <= 0 {
		return fmt.Sprintf(degenerateFormat, fileName)
	}

	body := strings.TrimSpace(string([]rune(summary)[:budget]))
	if body == "" {
		return fmt.Sprintf(degenerateFormat, fileName)
	}
	return prefix + body
}

// Build assembles the index record for one file.
func (b *IndexBuilder) Build(info *domain.FileInfo, fp domain.Fingerprint, summary *domain.SummaryRecord) *domain.IndexRecord {
	docType := summary.DocType
	if docType == "" {
		docType = domain.GenericDocType
	}
	return &domain.IndexRecord{
		FileName:    info.Name,
		FilePath:    info.Path,
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
		DocType:     docType,
		Summary:     b.Enhance(info.Name, summary.Summary),
		Fingerprint: fp,
		Source:      summary.Source,
	}
}

// Write serialises the record into a text file next to the source file
// and returns the written path. The filename carries the provenance
// suffix so the record is itself excluded from processing.
func (b *IndexBuilder) Write(record *domain.IndexRecord) (string, error) {
	dir := filepath.Dir(record.FilePath)
	stem := strings.TrimSuffix(record.FileName, filepath.Ext(record.FileName))
	path := filepath.Join(dir, stem+record.Suffix()+".txt")

	if err := os.WriteFile(path, []byte(record.Format()), 0o644); err != nil {
		return "", fmt.Errorf("write index record: %w", err)
	}
	return path, nil
}
