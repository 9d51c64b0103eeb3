// Package extractors selects the text extractor for a file extension.
//
// Format-specific extractors live in subpackages (plaintext, docx,
// pdf, spreadsheet, presentation, legacydoc, image), mirroring one
// package per content category. The registry dispatches on lowercased
// extension and falls back to a default extractor that reports the
// format as unsupported.
package extractors
