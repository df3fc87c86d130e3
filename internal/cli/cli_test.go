package cli

import (
	"flag"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestNewApp_Commands(t *testing.T) {
	app := NewApp()

	if app.DefaultCommand != "run" {
		t.Errorf("DefaultCommand = %q, want %q", app.DefaultCommand, "run")
	}

	want := map[string]bool{"run": false, "doctor": false, "history": false}
	for _, cmd := range app.Commands {
		if _, ok := want[cmd.Name]; ok {
			want[cmd.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRunFlags_EnvBindings(t *testing.T) {
	bindings := map[string]string{
		"url":         "URL",
		"limit":       "LIMIT",
		"style":       "STYLE",
		"best-only":   "BEST_ONLY",
		"question":    "QUESTION",
		"debug":       "DEBUG",
		"interactive": "INTERACTIVE",
		"device":      "DEVICE",
	}

	for _, f := range runFlags() {
		sf, ok := f.(*cli.StringFlag)
		if !ok {
			t.Errorf("flag %v is not a string flag; values must be forwarded verbatim", f.Names())
			continue
		}
		wantEnv, ok := bindings[sf.Name]
		if !ok {
			t.Errorf("unexpected flag %q", sf.Name)
			continue
		}
		delete(bindings, sf.Name)
		found := false
		for _, env := range sf.EnvVars {
			if env == wantEnv {
				found = true
			}
		}
		if !found {
			t.Errorf("flag %q not bound to env var %q (got %v)", sf.Name, wantEnv, sf.EnvVars)
		}
	}
	for name := range bindings {
		t.Errorf("flag %q missing", name)
	}
}

func TestRunFlags_Defaults(t *testing.T) {
	defaults := map[string]string{
		"url":         "https://huggingface.co/papers/date/2025-09-30",
		"limit":       "",
		"style":       "concise",
		"best-only":   "false",
		"question":    "What are the main contributions?",
		"debug":       "false",
		"interactive": "false",
		"device":      "",
	}
	for _, f := range runFlags() {
		sf := f.(*cli.StringFlag)
		want, ok := defaults[sf.Name]
		if !ok {
			continue
		}
		if sf.Value != want {
			t.Errorf("flag %q default = %q, want %q", sf.Name, sf.Value, want)
		}
	}
}

func TestOptionsFromContext(t *testing.T) {
	set := flag.NewFlagSet("test", 0)
	set.String("url", "", "")
	set.String("style", "", "")
	set.String("question", "", "")
	set.String("limit", "", "")
	set.String("best-only", "", "")
	set.String("interactive", "", "")
	set.String("device", "", "")
	if err := set.Parse([]string{}); err != nil {
		t.Fatal(err)
	}
	for name, value := range map[string]string{
		"url": "https://example.com", "style": "detailed", "question": "why?",
		"limit": "5", "best-only": "true", "interactive": "false", "device": "cpu",
	} {
		if err := set.Set(name, value); err != nil {
			t.Fatal(err)
		}
	}

	ctx := cli.NewContext(nil, set, nil)
	opts := optionsFromContext(ctx)

	if opts.URL != "https://example.com" {
		t.Errorf("URL = %q", opts.URL)
	}
	if opts.Style != "detailed" {
		t.Errorf("Style = %q", opts.Style)
	}
	if opts.Question != "why?" {
		t.Errorf("Question = %q", opts.Question)
	}
	if opts.Limit != "5" {
		t.Errorf("Limit = %q", opts.Limit)
	}
	if opts.BestOnly != "true" {
		t.Errorf("BestOnly = %q", opts.BestOnly)
	}
	if opts.Device != "cpu" {
		t.Errorf("Device = %q", opts.Device)
	}
}

func TestExitCodes(t *testing.T) {
	if ExitEnvironmentNotFound != 1 {
		t.Errorf("ExitEnvironmentNotFound = %d, want 1", ExitEnvironmentNotFound)
	}
	if ExitDependenciesMissing != 2 {
		t.Errorf("ExitDependenciesMissing = %d, want 2", ExitDependenciesMissing)
	}
}
