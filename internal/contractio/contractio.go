package contractio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sourceplane/runcontract/internal/contract"
)

// Load reads and parses a contract document, rejecting unknown schema
// versions and defaulting absent optional collections so older documents
// keep loading.
func Load(path string) (*contract.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract file: %w", err)
	}

	var c contract.Contract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse contract JSON %s: %w", path, err)
	}

	if c.SchemaVersion != contract.SchemaVersion {
		return nil, fmt.Errorf("unsupported contract schema_version %d in %s (engine supports %d)",
			c.SchemaVersion, path, contract.SchemaVersion)
	}

	if c.Configuration == nil {
		c.Configuration = map[string]any{}
	}
	if c.InputData == nil {
		c.InputData = map[string]any{}
	}
	if c.Tasks == nil {
		c.Tasks = []*contract.Task{}
	}
	if c.Assets == nil {
		c.Assets = []*contract.Asset{}
	}
	if c.Paths.ContractJSON == "" {
		c.Paths.ContractJSON = path
	}

	return &c, nil
}

// Save persists the contract to its own recorded location.
func Save(c *contract.Contract) error {
	path := c.Paths.ContractJSON
	if path == "" {
		path = contract.FileName
	}
	return WriteJSON(path, c)
}

// WriteJSON writes v as indented JSON via a write-then-rename so a reader
// never observes a partially written document. Atomicity covers single-file
// integrity only, not cross-invocation consistency.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render JSON for %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
