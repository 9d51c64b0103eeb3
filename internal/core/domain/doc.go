// Package domain contains the core types of the kbsync pipeline.
//
// The pipeline turns filesystem events into knowledge-base entries:
//
//	FileEvent -> Fingerprint (gate) -> ExtractedContent -> SummaryRecord
//	          -> IndexRecord (written locally) -> remote collection entry
//
// Types here carry no behaviour that touches the network or the
// filesystem beyond stat calls; adapters and services do that work.
package domain
