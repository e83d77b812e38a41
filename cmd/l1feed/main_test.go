package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("server:\n  addr: \":0\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		wantExit int
	}{
		{"version", []string{"version"}, 0},
		{"unknown command", []string{"launch"}, 1},
		{"missing config", []string{"serve", "-c", filepath.Join(dir, "nope.yaml")}, 1},
		{"no chains", []string{"serve", "-c", empty}, 1},
		{"quote without rpc", []string{"quote", "--chain", "optimism"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.wantExit {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.wantExit)
			}
		})
	}
}
