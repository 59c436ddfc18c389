//go:build framegraph_debug

package gpu

// DebugChecks enables validation and logging of backend errors on the hot path.
const DebugChecks = true
