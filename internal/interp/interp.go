package interp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors
var (
	ErrEnvironmentNotFound = errors.New("python environment not found")
	ErrVersionConstraint   = errors.New("interpreter version constraint not satisfied")
)

// Mode selects how the interpreter is invoked. It is chosen once during
// resolution and reused for every later invocation.
type Mode int

const (
	// ModeDirect invokes the interpreter binary inside the environment directly.
	ModeDirect Mode = iota
	// ModeManager invokes the interpreter indirectly through the environment
	// manager, scoped to the named environment.
	ModeManager
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeManager:
		return "manager"
	default:
		return "unknown"
	}
}

// Interpreter is a resolved interpreter invocation.
type Interpreter struct {
	Mode    Mode
	Python  string // absolute interpreter path (direct mode)
	Manager string // manager executable path (manager mode)
	EnvName string
}

// Command returns the executable and full argument list for invoking the
// interpreter with the given arguments under the resolved mode.
func (i *Interpreter) Command(args ...string) (string, []string) {
	if i.Mode == ModeManager {
		managed := []string{"run", "-n", i.EnvName, "python"}
		return i.Manager, append(managed, args...)
	}
	return i.Python, args
}

// Describe returns a human-readable summary of the invocation mode.
func (i *Interpreter) Describe() string {
	if i.Mode == ModeManager {
		return fmt.Sprintf("manager fallback via %s (env %s)", i.Manager, i.EnvName)
	}
	return fmt.Sprintf("direct interpreter at %s", i.Python)
}

// Resolver locates the interpreter for the configured environment.
// Stat and LookPath are injectable for tests.
type Resolver struct {
	Stat     func(string) (os.FileInfo, error)
	LookPath func(string) (string, error)
}

// NewResolver creates a resolver backed by the real filesystem and PATH.
func NewResolver() *Resolver {
	return &Resolver{
		Stat:     os.Stat,
		LookPath: exec.LookPath,
	}
}

// Resolve checks the fixed interpreter path first; if it is missing it falls
// back to the environment manager on the search path. ErrEnvironmentNotFound
// is returned when neither is available.
func (r *Resolver) Resolve(pythonPath, manager, envName string) (*Interpreter, error) {
	if info, err := r.Stat(pythonPath); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
		return &Interpreter{Mode: ModeDirect, Python: pythonPath, EnvName: envName}, nil
	}
	if managerPath, err := r.LookPath(manager); err == nil {
		return &Interpreter{Mode: ModeManager, Manager: managerPath, EnvName: envName}, nil
	}
	return nil, fmt.Errorf("%w: expected interpreter at %s and no %s executable on PATH",
		ErrEnvironmentNotFound, pythonPath, manager)
}

// Version asks the resolved interpreter for its version and returns the bare
// version string, e.g. "3.10.12".
func (i *Interpreter) Version(ctx context.Context, runner CommandRunner) (string, error) {
	name, args := i.Command("--version")
	out, err := runner.Run(ctx, name, args...)
	if err != nil {
		return "", fmt.Errorf("failed to query interpreter version: %w", err)
	}
	version := ParseVersionOutput(string(out))
	if version == "" {
		return "", fmt.Errorf("unrecognized interpreter version output: %q", strings.TrimSpace(string(out)))
	}
	return version, nil
}

// ParseVersionOutput extracts the version number from interpreter output such
// as "Python 3.10.12". Returns "" when no version token is present.
func ParseVersionOutput(out string) string {
	line := strings.TrimSpace(out)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if _, err := semver.NewVersion(last); err != nil {
		return ""
	}
	return last
}

// CheckVersion validates a reported interpreter version against an optional
// semver constraint. An empty constraint always passes.
func CheckVersion(version, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("failed to parse interpreter version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrVersionConstraint, version, constraint)
	}
	return nil
}
