package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `prefixes:
  - name: support-agent
    model: gemini-2.5-pro
    systemInstruction: "You are a support agent."
    ttl: 12h
    tools:
      - name: lookup_order
        parameters:
          type: object
    docs:
      - "Return policy: 30 days."
  - name: bare
    model: gemini-2.0-flash
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest.yaml", sampleYAML)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(m.Prefixes) != 2 {
		t.Fatalf("expected 2 prefixes, got %d", len(m.Prefixes))
	}
	e := m.Prefixes[0]
	if e.Model != "gemini-2.5-pro" || e.SystemInstruction == "" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if time.Duration(e.TTL) != 12*time.Hour {
		t.Fatalf("ttl not parsed: %v", time.Duration(e.TTL))
	}
	if len(e.Tools) != 1 || e.Tools[0]["name"] != "lookup_order" {
		t.Fatalf("tools not parsed: %v", e.Tools)
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest.json", `{"prefixes":[{"model":"gemini-2.5-pro","ttl":"90m"}]}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(m.Prefixes) != 1 || time.Duration(m.Prefixes[0].TTL) != 90*time.Minute {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestValidate(t *testing.T) {
	if err := (Manifest{}).Validate(); err == nil {
		t.Fatal("empty manifest should not validate")
	}
	m := Manifest{Prefixes: []Entry{{Name: "x"}}}
	if err := m.Validate(); err == nil {
		t.Fatal("missing model should not validate")
	}
}

func TestResolve_FilesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "system.txt", "You are terse.")
	writeFile(t, dir, "doc1.md", "# Doc one")

	e := Entry{
		Model:                 "gemini-2.5-pro",
		SystemInstructionFile: "system.txt",
		Docs:                  []string{"inline doc"},
		DocFiles:              []string{"doc1.md"},
	}
	resolved, err := e.Resolve(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.SystemInstruction != "You are terse." {
		t.Fatalf("system instruction not loaded: %q", resolved.SystemInstruction)
	}
	if len(resolved.Docs) != 2 || resolved.Docs[1] != "# Doc one" {
		t.Fatalf("docs not merged: %v", resolved.Docs)
	}
	// No explicit contents: the stable prefix becomes the payload.
	if len(resolved.Contents) != 3 || resolved.Contents[0] != "You are terse." {
		t.Fatalf("default contents wrong: %v", resolved.Contents)
	}
	// Original entry untouched.
	if e.SystemInstruction != "" || len(e.Contents) != 0 {
		t.Fatalf("resolve mutated input: %+v", e)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	e := Entry{Model: "m", SystemInstructionFile: "nope.txt"}
	if _, err := e.Resolve(t.TempDir()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
