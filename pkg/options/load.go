// File: pkg/options/load.go
package options

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads an option file. YAML and JSON are both accepted since JSON is a
// subset of YAML; keys keep their case so sourceMap stays sourceMap.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file %s: %w", path, err)
	}
	opts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return opts, nil
}

// Parse decodes an option document. An empty document yields empty Options.
func Parse(data []byte) (Options, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	opts := make(Options, len(raw))
	for k, v := range raw {
		opts[k] = normalize(v)
	}
	return opts, nil
}

// normalize turns decoded nested mappings into Options so lookups work uniformly.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Options, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
