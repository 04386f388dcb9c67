// Package main provides tests for the leapmigrate CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmigrate/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command error = %v", err)
	}

	if output := buf.String(); !strings.Contains(output, "leapmigrate") {
		t.Errorf("version output should contain 'leapmigrate', got: %s", output)
	}
}

func TestHelpListsCommands(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help error = %v", err)
	}

	output := buf.String()
	for _, name := range []string{"check", "translation", "process", "sync", "drop", "runs"} {
		if !strings.Contains(output, name) {
			t.Errorf("help output should list %q, got: %s", name, output)
		}
	}
}
