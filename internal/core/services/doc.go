// Package services implements the core business logic behind the driving
// ports: the stage requirement table, the pipeline orchestrator, the
// publication coordinator, and the library/material management services.
//
// Services depend only on domain types and driven-port interfaces. All
// operations are pure functions of their arguments plus the persistence
// collaborators; no service holds mutable process-wide state.
package services
