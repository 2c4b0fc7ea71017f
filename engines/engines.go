// Package engines holds the registry of JavaScript engines the automator
// can run test262 against.
package engines

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed engines.yaml
var defaultRegistry []byte

// Engine describes how the harness runs an engine binary.
type Engine struct {
	// Registry key (e.g. "v8")
	Name string `yaml:"name"`
	// test262-harness --hostType value
	HostType string `yaml:"hostType"`
	// Binary name inside the bin path, defaults to Name
	BinName string `yaml:"binName,omitempty"`
	// Preprocessor script passed to the harness, if any
	Preprocessor string `yaml:"preprocessor,omitempty"`
	// Key of the engine in the jsvu status file, defaults to Name
	StatusKey string `yaml:"statusKey,omitempty"`
}

// Binary returns the binary file name of the engine.
func (e Engine) Binary() string {
	if e.BinName != "" {
		return e.BinName
	}
	return e.Name
}

// UnknownEngineError is returned when looking up an engine that is not registered.
type UnknownEngineError struct {
	Name      string
	Supported []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("a valid engine is required, %q is not valid; supported engines: %s",
		e.Name, strings.Join(e.Supported, ", "))
}

// Registry is an immutable set of engines keyed by name.
type Registry struct {
	engines map[string]Engine
	names   []string
}

type registryFile struct {
	Engines []Engine `yaml:"engines"`
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(defaultRegistry)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in engine registry: %v", err))
	}
	return r
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine registry: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML registry document.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse engine registry: %w", err)
	}

	r := &Registry{engines: make(map[string]Engine, len(file.Engines))}
	for _, e := range file.Engines {
		if e.Name == "" || e.HostType == "" {
			return nil, fmt.Errorf("engine entries need a name and a hostType: %+v", e)
		}
		if _, exists := r.engines[e.Name]; exists {
			return nil, fmt.Errorf("engine %q registered twice", e.Name)
		}
		r.engines[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the engine registered under name.
func (r *Registry) Lookup(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return Engine{}, &UnknownEngineError{Name: name, Supported: r.Names()}
	}
	return e, nil
}

// Names returns the registered engine names in lexical order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// ResolveVersion reads the installed version of e from a jsvu status file.
// Both the flat form {"v8": "12.1.1"} and the nested form
// {"installed": {"v8": {"version": "12.1.1"}}} are understood.
func ResolveVersion(statusFile string, e Engine) (string, error) {
	data, err := os.ReadFile(statusFile)
	if err != nil {
		return "", fmt.Errorf("failed to read engine status: %w", err)
	}

	var status map[string]json.RawMessage
	if err := json.Unmarshal(data, &status); err != nil {
		return "", fmt.Errorf("failed to parse engine status %s: %w", statusFile, err)
	}

	var version string
	if raw, ok := status[e.Name]; ok && json.Unmarshal(raw, &version) == nil && version != "" {
		return version, nil
	}

	key := e.StatusKey
	if key == "" {
		key = e.Name
	}
	var installed map[string]struct {
		Version string `json:"version"`
	}
	if raw, ok := status["installed"]; ok {
		if err := json.Unmarshal(raw, &installed); err != nil {
			return "", fmt.Errorf("failed to parse installed engines in %s: %w", statusFile, err)
		}
	}
	if v := installed[key].Version; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no version of %s found in %s", e.Name, statusFile)
}
