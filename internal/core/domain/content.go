package domain

// Category is the broad content category a file is extracted as.
type Category string

const (
	// CategoryText covers plain text, markdown and CSV files.
	CategoryText Category = "text"

	// CategoryDocument covers modern word-processor documents.
	CategoryDocument Category = "document"

	// CategoryLegacyDoc covers legacy binary word-processor documents
	// that need conversion before extraction.
	CategoryLegacyDoc Category = "legacyDoc"

	// CategoryPDF covers PDF files.
	CategoryPDF Category = "pdf"

	// CategorySpreadsheet covers spreadsheet workbooks.
	CategorySpreadsheet Category = "spreadsheet"

	// CategoryPresentation covers slide decks.
	CategoryPresentation Category = "presentation"

	// CategoryImage covers image files. Images produce structural
	// metadata instead of text.
	CategoryImage Category = "image"
)

// ExtractedContent is the outcome of text extraction for one file.
//
// Text is always set: extraction failures are encoded as a descriptive
// string rather than surfaced as an error, so a single malformed file
// can never abort the pipeline.
type ExtractedContent struct {
	// SourcePath is the absolute path of the extracted file.
	SourcePath string

	// Category is the content category the file was dispatched as.
	Category Category

	// Text is the extracted text, or a human-readable failure
	// description, or for images a JSON string of structural metadata.
	Text string

	// Truncated reports whether the extractor cut the text short.
	Truncated bool
}

// SummarySource records which engine produced a summary.
type SummarySource string

const (
	// SummaryRemoteAI means the remote chat endpoint produced the summary.
	SummaryRemoteAI SummarySource = "remote-ai"

	// SummaryLocalHeuristic means keyword inference produced the summary
	// after the remote call failed or returned an unusable answer.
	SummaryLocalHeuristic SummarySource = "local-heuristic"

	// SummaryError means even the heuristic had nothing to work with.
	SummaryError SummarySource = "error"
)

// GenericDocType is the document category used when no better
// classification is available.
const GenericDocType = "通用文档"

// ImageDocType is the fixed document category for image files.
const ImageDocType = "图片"

// SummaryRecord is a classified summary of one file.
//
// DocType is always non-empty; callers bound Summary's length before
// embedding it into an index record.
type SummaryRecord struct {
	// DocType is the human-readable document category.
	DocType string

	// Summary is the content summary text.
	Summary string

	// Source records which engine produced the record.
	Source SummarySource
}
