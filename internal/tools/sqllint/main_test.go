package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		code    int
		message string
	}{
		{
			name:   "marked statement",
			source: "package q\n\nconst QOne = `--sql 4a3aed6b-a507-46e6-bf0b-382d5465a522\nselect 1;\n`\n",
			code:   0,
		},
		{
			name:    "missing marker",
			source:  "package q\n\nconst QOne = `select 1;`\n",
			code:    1,
			message: "QOne: missing or invalid --sql <uuid> marker",
		},
		{
			name: "duplicate marker",
			source: "package q\n\nconst (\n\tQOne = `--sql 4a3aed6b-a507-46e6-bf0b-382d5465a522\nselect 1;`\n" +
				"\tQTwo = `--sql 4a3aed6b-a507-46e6-bf0b-382d5465a522\nselect 2;`\n)\n",
			code:    1,
			message: "already used by QOne",
		},
		{
			name:   "prose is ignored",
			source: "package q\n\nconst Help = \"pick a plan\"\n",
			code:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSource(t, dir, "q.go", tt.source)
			var stdout, stderr bytes.Buffer
			code := run([]string{dir}, &stdout, &stderr)
			if code != tt.code {
				t.Fatalf("code = %d, want %d (stderr=%s)", code, tt.code, stderr.String())
			}
			if tt.message != "" && !strings.Contains(stderr.String(), tt.message) {
				t.Fatalf("stderr = %q, want %q", stderr.String(), tt.message)
			}
		})
	}
}

func TestRunSkipsTests(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "q_test.go", "package q\n\nconst QBad = `select 1;`\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{dir}, &stdout, &stderr); code != 0 {
		t.Fatalf("code = %d, stderr=%s", code, stderr.String())
	}
}

func TestRepositoryStatements(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"../../sqlinline"}, &stdout, &stderr); code != 0 {
		t.Fatalf("sqlinline has findings: %s", stderr.String())
	}
}
