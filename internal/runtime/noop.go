package runtime

import (
	"context"

	"github.com/rs/zerolog/log"
)

// NoopRuntime logs what would be executed without touching anything. It
// backs dry-run deployments.
type NoopRuntime struct{}

func NewNoopRuntime() *NoopRuntime { return &NoopRuntime{} }

func (NoopRuntime) Ping(ctx context.Context, addr string) error {
	log.Info().Str("machine", addr).Msg("dry-run: would test connectivity")
	return nil
}

func (NoopRuntime) CopyBundle(ctx context.Context, addr string, files FileSet) error {
	for local, remote := range files {
		log.Info().Str("machine", addr).Str("src", local).Str("dst", remote).
			Msg("dry-run: would copy artifact")
	}
	return nil
}

func (NoopRuntime) Apply(ctx context.Context, addr, dir string) error {
	log.Info().Str("machine", addr).Str("dir", dir).Msg("dry-run: would apply compose bundle")
	return nil
}

func (NoopRuntime) Verify(ctx context.Context, addr string, services []string) error {
	log.Info().Str("machine", addr).Strs("services", services).
		Msg("dry-run: would verify services")
	return nil
}
