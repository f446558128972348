// Package runtime is the container-runtime capability the dispatcher drives:
// connectivity probing, artifact copy, compose apply, and verification that
// expected services report running.
package runtime

import "context"

// FileSet maps local artifact paths to their destination on the target.
type FileSet map[string]string

type Runtime interface {
	// Ping tests connectivity to the machine within a bounded timeout.
	Ping(ctx context.Context, addr string) error
	// CopyBundle places generated artifacts on the machine.
	CopyBundle(ctx context.Context, addr string, files FileSet) error
	// Apply makes the container runtime converge on the copied artifacts.
	Apply(ctx context.Context, addr, dir string) error
	// Verify checks that every named service reports running.
	Verify(ctx context.Context, addr string, services []string) error
}
