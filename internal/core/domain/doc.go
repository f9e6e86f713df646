// Package domain contains the core entities of the study-notes pipeline:
// collections, study units, uploaded material, and versioned generations.
//
// The domain layer has no dependencies on adapters or external services.
// All business rules that can be expressed on the entities themselves
// (stage ordering, status transitions, label ordering) live here.
package domain
