package process

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed executors.yaml
var defaultExecutors []byte

// ExecutorSpec describes how to run snippets of one language.
type ExecutorSpec struct {
	// Filename the snippet is written to inside the scratch directory.
	Filename    string            `yaml:"filename" json:"filename"`
	Environment map[string]string `yaml:"environment" json:"environment"`
	// Commands run in order; "$pwd" expands to the scratch directory.
	Commands         [][]string              `yaml:"commands" json:"commands"`
	HiddenLinePrefix string                  `yaml:"hidden_line_prefix" json:"hidden_line_prefix"`
	Alternatives     map[string]ExecutorSpec `yaml:"alternative" json:"alternative"`
}

func (s ExecutorSpec) validate() error {
	if s.Filename == "" {
		return fmt.Errorf("filename is empty")
	}
	if len(s.Commands) == 0 {
		return fmt.Errorf("no commands given")
	}
	for _, c := range s.Commands {
		if len(c) == 0 {
			return fmt.Errorf("empty command given")
		}
	}
	return nil
}

// Registry maps languages to executors. It is read-only after construction.
type Registry struct {
	executors map[string]ExecutorSpec
}

// NewRegistry builds the registry from the embedded defaults with custom entries on top.
func NewRegistry(custom map[string]ExecutorSpec) (*Registry, error) {
	executors := map[string]ExecutorSpec{}
	if err := yaml.Unmarshal(defaultExecutors, &executors); err != nil {
		return nil, fmt.Errorf("embedded executors are invalid: %w", err)
	}
	for lang, spec := range custom {
		executors[lang] = spec
	}
	for _, lang := range sortedKeys(executors) {
		spec := executors[lang]
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("invalid executor for %s: %w", lang, err)
		}
		for _, alt := range sortedKeys(spec.Alternatives) {
			if err := spec.Alternatives[alt].validate(); err != nil {
				return nil, fmt.Errorf("invalid executor for %s:%s: %w", lang, alt, err)
			}
		}
	}
	return &Registry{executors: executors}, nil
}

// Lookup returns the executor for language, or its named alternative when alt is set.
func (r *Registry) Lookup(language, alt string) (ExecutorSpec, bool) {
	spec, ok := r.executors[language]
	if !ok || alt == "" {
		return spec, ok
	}
	spec, ok = r.executors[language].Alternatives[alt]
	return spec, ok
}

// HiddenLinePrefix returns the prefix marking lines hidden from display, if any.
func (r *Registry) HiddenLinePrefix(language string) string {
	return r.executors[language].HiddenLinePrefix
}

// Languages lists the languages with an executor.
func (r *Registry) Languages() []string {
	return sortedKeys(r.executors)
}

// LoadExecutors reads custom executors from a YAML or JSON file keyed by language.
// A missing file yields no executors.
func LoadExecutors(path string) (map[string]ExecutorSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ExecutorSpec{}, nil
		}
		return nil, fmt.Errorf("failed to read executors config: %w", err)
	}

	executors := map[string]ExecutorSpec{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &executors); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return executors, nil
	}
	if err := yaml.Unmarshal(data, &executors); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return executors, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
