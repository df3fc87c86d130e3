// Package probe verifies that required python modules are importable in the
// resolved interpreter before the downstream script is launched.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paperchat/chat-launcher/internal/interp"
)

// Sentinel errors
var (
	ErrDependenciesMissing = errors.New("required python modules are not importable")
)

// Run attempts to import each module in the resolved interpreter, discarding
// output. It returns the names of modules whose import failed, preserving the
// declared order. The probe performs no installation or remediation.
func Run(ctx context.Context, runner interp.CommandRunner, in *interp.Interpreter, modules []string) []string {
	var missing []string
	for _, module := range modules {
		name, args := in.Command("-c", "import "+module)
		if _, err := runner.Run(ctx, name, args...); err != nil {
			missing = append(missing, module)
		}
	}
	return missing
}

// MissingError builds the terminal error for a non-empty missing list,
// including the space-joined module names and a remediation hint.
func MissingError(missing []string, envName string) error {
	return fmt.Errorf("%w: %s\ninstall them into the %q environment, e.g.: pip install %s",
		ErrDependenciesMissing,
		strings.Join(missing, " "),
		envName,
		strings.Join(missing, " "))
}
