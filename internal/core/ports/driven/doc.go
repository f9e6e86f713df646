// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CollectionStore / StudyUnitStore: library persistence
//   - MaterialStore: uploaded material persistence and the active-kind index
//   - GenerationStore: the versioned generation log
//   - PromptRenderer: deterministic prompt assembly
//
// # Optional Interfaces
//
// These can be nil - the affected operations report a configuration error:
//
//   - DocumentPublisher: the document store (Notion). Publishing is disabled
//     without it.
//   - BackupStore: the file backup (Drive). Publishing and material upload
//     are disabled without it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
