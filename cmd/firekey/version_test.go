package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "1.2.3-test"
	GitCommit = "abc123"

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)
	versionCmd.Run(versionCmd, nil)

	got := out.String()
	for _, want := range []string{
		"FireKey Tally 1.2.3-test",
		"Git Commit: abc123",
		"Go Version: " + runtime.Version(),
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("version output missing %q:\n%s", want, got)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "demo", "cache", "report", "prune", "version", "completion"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}
}
