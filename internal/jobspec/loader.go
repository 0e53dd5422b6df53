package jobspec

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type specFile struct {
	JobID  string            `yaml:"job_id"`
	Name   string            `yaml:"name"`
	Jobs   map[string]JobDef `yaml:"jobs"`
	JobDef `yaml:",inline"`
}

// Load reads a specification file and selects the job definition for
// jobID. An empty path yields an empty definition. When the file holds a
// `jobs` map and jobID is empty, a lone entry is selected implicitly.
// Returns the definition and the resolved job id.
func Load(path, jobID string) (*JobDef, string, error) {
	if path == "" {
		return &JobDef{}, jobID, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read spec file: %w", err)
	}

	var file specFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("failed to parse spec file %s: %w", path, err)
	}

	if len(file.Jobs) > 0 {
		if def, ok := file.Jobs[jobID]; ok {
			return &def, jobID, nil
		}
		if jobID == "" && len(file.Jobs) == 1 {
			for id, def := range file.Jobs {
				return &def, id, nil
			}
		}
		available := make([]string, 0, len(file.Jobs))
		for id := range file.Jobs {
			available = append(available, id)
		}
		sort.Strings(available)
		return nil, "", fmt.Errorf("job id %q not found in %s (available: %s)",
			jobID, path, strings.Join(available, ", "))
	}

	resolved := jobID
	if resolved == "" {
		resolved = file.JobID
	}
	if resolved == "" {
		resolved = file.Name
	}
	if resolved == "" {
		resolved = "job"
	}
	return &file.JobDef, resolved, nil
}

// ReadDocument parses a YAML or JSON file into a generic document, the form
// the schema validator consumes.
func ReadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// ReadObjectFile parses a YAML or JSON file that must hold a mapping.
func ReadObjectFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s must hold an object: %w", path, err)
	}
	return out, nil
}

// ReadAssetList parses a YAML or JSON file that must hold an array of asset
// definitions.
func ReadAssetList(path string) ([]AssetDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var out []AssetDef
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s must hold an array of assets: %w", path, err)
	}
	return out, nil
}

// InitBundle is the single-file form of init input: configuration, input
// data, expected asset lists, and run metadata in one document.
type InitBundle struct {
	Config         map[string]any `yaml:"config"`
	Inputs         map[string]any `yaml:"inputs"`
	ExpectedAssets []AssetDef     `yaml:"expected_assets"`
	ExpectedInputs []AssetDef     `yaml:"expected_inputs"`
	RunMetadata    map[string]any `yaml:"run_metadata"`
}

// ReadInitBundle parses an init bundle file.
func ReadInitBundle(path string) (*InitBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var bundle InitBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%s must hold an init bundle object: %w", path, err)
	}
	return &bundle, nil
}
