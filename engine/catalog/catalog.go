package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// file is the on-disk catalog layout.
type file struct {
	Characters []Descriptor `yaml:"characters"`
}

// Load reads a YAML catalog and validates every descriptor.
//
// Parameters:
//   - path: the catalog file
//
// Returns:
//   - []Descriptor: validated descriptors in file order
//   - error: read, decode or validation error
func Load(path string) ([]Descriptor, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
//
// Parameters:
//   - b: the YAML document
//
// Returns:
//   - []Descriptor: validated descriptors in document order
//   - error: decode or validation error
func Parse(b []byte) ([]Descriptor, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]Descriptor, 0, len(f.Characters))
	seen := make(map[string]bool, len(f.Characters))
	for _, d := range f.Characters {
		v, err := Validate(d)
		if err != nil {
			return nil, fmt.Errorf("validate catalog: %w", err)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("validate catalog: %s: %w", v.ID, ErrDuplicateID)
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out, nil
}

// Default returns the built-in character dataset.
func Default() []Descriptor {
	out, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded dataset is invalid: %v", err))
	}
	return out
}

// Find returns the index of the descriptor with the given id, or -1.
func Find(descriptors []Descriptor, id string) int {
	for i, d := range descriptors {
		if d.ID == id {
			return i
		}
	}
	return -1
}
