package checker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"github.com/khanhnv2901/moodscan/internal/shared/security"
	"gopkg.in/yaml.v3"
)

// moduleDefinition is the on-disk description of an external module.
type moduleDefinition struct {
	Name           string            `json:"name" yaml:"name"`
	Description    string            `json:"description" yaml:"description"`
	Enabled        *bool             `json:"enabled" yaml:"enabled"`
	Command        string            `json:"command" yaml:"command"`
	Args           []string          `json:"args" yaml:"args"`
	ExploitArgs    []string          `json:"exploit_args" yaml:"exploit_args"`
	Env            map[string]string `json:"env" yaml:"env"`
	TimeoutSeconds int               `json:"timeout" yaml:"timeout"`
	APIVersion     int               `json:"api_version" yaml:"api_version"`
}

// ModuleAPIVersion is the definition format external modules declare in api_version.
const ModuleAPIVersion = 1

// DirectorySource loads external module definitions from a directory.
type DirectorySource struct {
	dir string
}

// NewDirectorySource creates a source reading definitions from dir. A missing
// directory simply yields no modules.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

func (s *DirectorySource) Name() string {
	return s.dir
}

// Load parses every definition file in name order.
func (s *DirectorySource) Load() ([]module.Module, []error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []error{&sharedErrors.ModuleLoadError{Source: s.dir, Err: err}}
	}

	var (
		modules []module.Module
		errs    []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		def, err := readDefinition(path)
		if err != nil {
			errs = append(errs, &sharedErrors.ModuleLoadError{Source: path, Err: err})
			continue
		}
		m, err := s.build(def)
		if err != nil {
			errs = append(errs, &sharedErrors.ModuleLoadError{Source: path, Err: err})
			continue
		}
		modules = append(modules, m)
	}
	return modules, errs
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func readDefinition(path string) (moduleDefinition, error) {
	var def moduleDefinition

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read definition: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &def)
	} else {
		err = yaml.Unmarshal(data, &def)
	}
	if err != nil {
		return def, fmt.Errorf("failed to parse definition: %w", err)
	}

	if def.APIVersion == 0 {
		def.APIVersion = ModuleAPIVersion
	}
	if def.APIVersion != ModuleAPIVersion {
		return def, fmt.Errorf("unsupported module API version %d (expected %d)", def.APIVersion, ModuleAPIVersion)
	}
	if def.Name == "" || def.Command == "" {
		return def, errors.New("name and command required")
	}
	return def, nil
}

func (s *DirectorySource) build(def moduleDefinition) (*ExternalModule, error) {
	enabled := true
	if def.Enabled != nil {
		enabled = *def.Enabled
	}

	command := def.Command
	// commands given relative to the definition live next to it
	if !filepath.IsAbs(command) && strings.ContainsRune(command, filepath.Separator) {
		resolved, err := security.ResolveWithin(s.dir, command)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", def.Command, err)
		}
		command = resolved
	}

	return NewExternalModule(ExternalModuleConfig{
		Name:           def.Name,
		Enabled:        enabled,
		Command:        command,
		Args:           def.Args,
		ExploitArgs:    def.ExploitArgs,
		Env:            def.Env,
		TimeoutSeconds: def.TimeoutSeconds,
	}), nil
}
