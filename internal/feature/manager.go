// Package feature provides the shared contract every KEEL workflow engine
// implements, plus the registry that activates engines on demand.
//
// Feature managers own no workflow logic here: the contract covers
// configuration defaulting/merging, menu delegation, and contextual help.
// Concrete engines live in their own packages (workflow, backup, health,
// stash, conflict) and are registered by the CLI at startup.
package feature

import "context"

// Manager is the capability set every feature engine exposes to the
// dispatcher. Variants are dispatched by name through the Registry, never by
// runtime type inspection.
type Manager interface {
	// Name returns the feature's registry name (e.g. "branch_workflows").
	Name() string

	// DefaultConfig returns the feature's hard-coded option defaults.
	// The effective configuration is these defaults deep-merged with any
	// user overrides from the persisted configuration.
	DefaultConfig() map[string]any

	// Menu runs the feature's interactive menu. The rendering itself is
	// delegated to the UI layer; direct operation entry points remain
	// callable without going through the menu.
	Menu(ctx context.Context) error

	// ContextHelp returns a short usage description for the help system.
	ContextHelp() string
}
