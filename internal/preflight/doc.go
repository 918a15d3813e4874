// Package preflight provides readiness checks for the runtime payload source
// and the filesystem paths framepress depends on.
//
// The CLI "framepress doctor" command runs RunAll and renders each Result.
// Individual checks (CheckRuntimeSource, CheckDirectoryAccess) are usable on
// their own. No check loads the engine or mutates the scratch directory.
package preflight
