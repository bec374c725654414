// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Embedder: turns text into fixed-dimension vectors
//   - VectorIndex / IndexFactory: per-document nearest-neighbour search
//   - GenerationClient: remote chat completion, streaming and non-streaming
//   - Normaliser: extracts text or rows from uploaded bytes
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SnapshotStore: persists documents and table rows across restarts
//   - PromptStore: user-editable prompt templates
//   - UploadStore: keeps uploaded source files on disk
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
