// Package launch assembles the downstream script invocation and delegates to
// it, propagating the child's exit code unchanged.
package launch

import (
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/paperchat/chat-launcher/internal/interp"
)

// Options carries the environment-derived values forwarded to the downstream
// script. String values are forwarded verbatim without shape validation.
type Options struct {
	URL         string
	Style       string
	Question    string
	Limit       string // omitted when empty
	BestOnly    string // flag appears iff exactly "true"
	Interactive string // flag appears iff exactly "true"
	Device      string // omitted when empty
}

// Args builds the downstream argument list. --url, --style and --question are
// always present; --limit appears iff Limit is non-empty; --best_only and
// --interactive appear iff their value is "true"; --device appears iff Device
// is non-empty.
func (o Options) Args(script string) []string {
	args := []string{
		script,
		"--url", o.URL,
		"--style", o.Style,
		"--question", o.Question,
	}
	if o.Limit != "" {
		args = append(args, "--limit", o.Limit)
	}
	if o.BestOnly == "true" {
		args = append(args, "--best_only")
	}
	if o.Interactive == "true" {
		args = append(args, "--interactive")
	}
	if o.Device != "" {
		args = append(args, "--device", o.Device)
	}
	return args
}

// Delegate runs the downstream program under the resolved interpreter with the
// given stdio and returns its exit code. Output is not filtered or
// transformed. A non-nil error means the child could not be started at all.
func Delegate(ctx context.Context, in *interp.Interpreter, args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	name, argv := in.Command(args...)
	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
