// Package services implements the driving port interfaces.
// Services hold the pipeline's business logic and orchestrate calls to
// the driven ports (extractors, summariser, uploader, journal).
//
// Services are pure Go with no external dependencies beyond domain.
package services
