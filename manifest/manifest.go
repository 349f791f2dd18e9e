package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Entry declares one prefix cache to create ahead of time. Inline fields and
// their *File counterparts are alternatives; the file wins when both are set.
type Entry struct {
	// Name labels the entry in logs. Optional.
	Name string `yaml:"name" json:"name"`
	// Model is the target model identifier. Required.
	Model string `yaml:"model" json:"model"`

	SystemInstruction     string `yaml:"systemInstruction" json:"systemInstruction"`
	SystemInstructionFile string `yaml:"systemInstructionFile" json:"systemInstructionFile"`

	// Tools holds tool schemas as free-form field maps, matching what the
	// fingerprint engine consumes.
	Tools []map[string]any `yaml:"tools" json:"tools"`

	Docs     []string `yaml:"docs" json:"docs"`
	DocFiles []string `yaml:"docFiles" json:"docFiles"`

	// Contents is the payload cached remotely. When empty, the resolved
	// system instruction and docs are used as the payload.
	Contents     []string `yaml:"contents" json:"contents"`
	ContentFiles []string `yaml:"contentFiles" json:"contentFiles"`

	// TTL for the remote object, e.g. "24h". Zero means the registry default.
	TTL Duration `yaml:"ttl" json:"ttl"`
}

// Duration decodes either a human-readable duration string ("24h", "90m") or
// an integer nanosecond count from YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Manifest is the top-level warm manifest schema.
type Manifest struct {
	Prefixes []Entry `yaml:"prefixes" json:"prefixes"`
}

// Load reads a YAML or JSON manifest from path. Extension selects the format;
// unknown extensions try YAML first, then JSON.
func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &m); err != nil {
			return m, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &m); err != nil {
			return m, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &m); err != nil {
			if jerr := json.Unmarshal(b, &m); jerr != nil {
				return m, fmt.Errorf("parse manifest: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return m, nil
}

// Validate checks required fields across all entries.
func (m Manifest) Validate() error {
	if len(m.Prefixes) == 0 {
		return errors.New("manifest: no prefixes declared")
	}
	for i, e := range m.Prefixes {
		if e.Model == "" {
			return fmt.Errorf("manifest: prefixes[%d]: model is required", i)
		}
	}
	return nil
}

// Resolve materializes file-backed fields relative to baseDir and returns a
// self-contained entry. The original entry is not modified.
func (e Entry) Resolve(baseDir string) (Entry, error) {
	out := e
	if e.SystemInstructionFile != "" {
		b, err := os.ReadFile(join(baseDir, e.SystemInstructionFile))
		if err != nil {
			return out, fmt.Errorf("system instruction: %w", err)
		}
		out.SystemInstruction = string(b)
	}
	docs, err := readAll(baseDir, e.DocFiles)
	if err != nil {
		return out, fmt.Errorf("docs: %w", err)
	}
	out.Docs = append(append([]string(nil), e.Docs...), docs...)

	contents, err := readAll(baseDir, e.ContentFiles)
	if err != nil {
		return out, fmt.Errorf("contents: %w", err)
	}
	out.Contents = append(append([]string(nil), e.Contents...), contents...)
	if len(out.Contents) == 0 {
		// Default payload: the stable prefix itself.
		if out.SystemInstruction != "" {
			out.Contents = append(out.Contents, out.SystemInstruction)
		}
		out.Contents = append(out.Contents, out.Docs...)
	}
	return out, nil
}

func readAll(baseDir string, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(join(baseDir, p))
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

func join(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
