package swarmstack

import (
	"fmt"

	"github.com/docker/cli/cli/compose/loader"
	composetypes "github.com/docker/cli/cli/compose/types"
)

// Validate runs the marshalled stack through Docker's own Compose v3 loader,
// so anything we emit is guaranteed to be accepted by docker stack deploy.
func Validate(data []byte) error {
	parsed, err := loader.ParseYAML(data)
	if err != nil {
		return fmt.Errorf("stack yaml: %w", err)
	}
	_, err = loader.Load(composetypes.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []composetypes.ConfigFile{
			{Filename: "stack.yml", Config: parsed},
		},
		Environment: map[string]string{},
	})
	if err != nil {
		return fmt.Errorf("stack schema: %w", err)
	}
	return nil
}
