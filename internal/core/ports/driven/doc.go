// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - Extractor: Extracts text from one content category
//   - ExtractorRegistry: Selects the extractor for a file extension
//   - Summariser: Produces a classified summary of extracted content
//   - Uploader: Pushes files into the remote knowledge base
//   - StabilityChecker: Waits until a file has stopped growing
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SyncJournal: Records processing outcomes. Without it, outcomes are
//     only logged.
//   - LegacyConverter: Converts legacy binary documents. Without it, .doc
//     files fall through to the placeholder path.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
