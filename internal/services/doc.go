// Package services defines shared utilities consumed by the workflow engine
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp work item IDs, batch IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across components.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
