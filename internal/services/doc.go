// Package services provides the shared error taxonomy and context helpers
// used by pipeline stages. Stage errors are tagged with sentinel markers so
// the orchestrator can classify failures into stable machine-readable codes
// without inspecting error strings.
package services
