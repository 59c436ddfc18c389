//go:build !framegraph_debug

package gpu

const DebugChecks = false
