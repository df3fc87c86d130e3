package launch

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/paperchat/chat-launcher/internal/interp"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "defaults only",
			opts: Options{
				URL:      "https://huggingface.co/papers/date/2025-09-30",
				Style:    "concise",
				Question: "What are the main contributions?",
				BestOnly: "false",
			},
			want: []string{
				"run_chat.py",
				"--url", "https://huggingface.co/papers/date/2025-09-30",
				"--style", "concise",
				"--question", "What are the main contributions?",
			},
		},
		{
			name: "limit set",
			opts: Options{
				URL: "u", Style: "s", Question: "q", Limit: "5",
			},
			want: []string{
				"run_chat.py", "--url", "u", "--style", "s", "--question", "q",
				"--limit", "5",
			},
		},
		{
			name: "best_only true",
			opts: Options{
				URL: "u", Style: "s", Question: "q", BestOnly: "true",
			},
			want: []string{
				"run_chat.py", "--url", "u", "--style", "s", "--question", "q",
				"--best_only",
			},
		},
		{
			name: "best_only arbitrary value omitted",
			opts: Options{
				URL: "u", Style: "s", Question: "q", BestOnly: "yes",
			},
			want: []string{
				"run_chat.py", "--url", "u", "--style", "s", "--question", "q",
			},
		},
		{
			name: "limit then best_only ordering",
			opts: Options{
				URL: "u", Style: "s", Question: "q", Limit: "3", BestOnly: "true",
			},
			want: []string{
				"run_chat.py", "--url", "u", "--style", "s", "--question", "q",
				"--limit", "3", "--best_only",
			},
		},
		{
			name: "interactive and device appended last",
			opts: Options{
				URL: "u", Style: "s", Question: "q",
				BestOnly: "true", Interactive: "true", Device: "cuda",
			},
			want: []string{
				"run_chat.py", "--url", "u", "--style", "s", "--question", "q",
				"--best_only", "--interactive", "--device", "cuda",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.Args("run_chat.py")
			if len(got) != len(tt.want) {
				t.Fatalf("Args() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Args()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestArgs_BestOnlyAppearsExactlyOnce(t *testing.T) {
	opts := Options{URL: "u", Style: "s", Question: "q", BestOnly: "true"}
	count := 0
	for _, a := range opts.Args("run_chat.py") {
		if a == "--best_only" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("--best_only appears %d times, want 1", count)
	}
}

func TestDelegate_ExitCodePropagation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh := &interp.Interpreter{Mode: interp.ModeDirect, Python: "/bin/sh", EnvName: "test"}

	code, err := Delegate(context.Background(), sh, []string{"-c", "exit 0"}, nil, io.Discard, io.Discard)
	if err != nil || code != 0 {
		t.Errorf("Delegate(exit 0) = (%d, %v), want (0, nil)", code, err)
	}

	code, err = Delegate(context.Background(), sh, []string{"-c", "exit 7"}, nil, io.Discard, io.Discard)
	if err != nil || code != 7 {
		t.Errorf("Delegate(exit 7) = (%d, %v), want (7, nil)", code, err)
	}
}

func TestDelegate_OutputPassesThroughUnfiltered(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh := &interp.Interpreter{Mode: interp.ModeDirect, Python: "/bin/sh", EnvName: "test"}

	var stdout bytes.Buffer
	code, err := Delegate(context.Background(), sh, []string{"-c", "echo hello"}, nil, &stdout, io.Discard)
	if err != nil || code != 0 {
		t.Fatalf("Delegate(echo) = (%d, %v), want (0, nil)", code, err)
	}
	if !strings.Contains(stdout.String(), "hello") {
		t.Errorf("stdout = %q, want child output forwarded", stdout.String())
	}
}

func TestDelegate_StartFailure(t *testing.T) {
	missing := &interp.Interpreter{Mode: interp.ModeDirect, Python: "/nonexistent/python", EnvName: "test"}
	code, err := Delegate(context.Background(), missing, []string{"run_chat.py"}, nil, io.Discard, io.Discard)
	if err == nil {
		t.Error("expected start error, got nil")
	}
	if code != -1 {
		t.Errorf("code = %d, want -1 for start failure", code)
	}
}
