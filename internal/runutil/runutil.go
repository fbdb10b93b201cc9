// internal/runutil/runutil.go
package runutil

import (
	"path/filepath"
	"runtime"
)

// Threads returns the effective worker count: n itself, or every CPU when
// n <= 0.
func Threads(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// ScratchDir is the per-run scratch directory. It lives under workDir when
// one is configured and inside the index directory otherwise, so partition
// files share the index's file system.
func ScratchDir(indexDir, workDir, runID string) string {
	base := workDir
	if base == "" {
		base = indexDir
	}
	return filepath.Join(base, ".work-"+runID)
}
