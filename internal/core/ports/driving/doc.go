// Package driving defines the interfaces the outside world calls IN through.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI adapter depends on these interfaces, and core services implement
// them.
package driving
