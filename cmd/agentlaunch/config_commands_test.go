package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init returned error: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("output missing target path:\n%s", output)
	}

	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(raw), "[moltbook]") {
		t.Fatalf("sample config missing moltbook section:\n%s", raw)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestConfigShowDefaults(t *testing.T) {
	cfgPath := writeTestConfig(t)

	output, err := runCommand(t, "config", "show", "--path", cfgPath)
	if err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	for _, want := range []string{"[moltbook]", "[clawnch]", "submolt = 'clawnch'"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}
