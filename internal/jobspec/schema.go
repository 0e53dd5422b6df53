package jobspec

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed jobspec.schema.json
var rawSchema string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("jobspec.schema.json", strings.NewReader(rawSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to load embedded job spec schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("jobspec.schema.json")
	})
	return schema, schemaErr
}

// ValidateDocument checks a parsed specification document against the
// embedded schema.
func ValidateDocument(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("job spec validation failed: %w", err)
	}
	return nil
}

// ValidateFile reads and checks a specification file.
func ValidateFile(path string) error {
	doc, err := ReadDocument(path)
	if err != nil {
		return err
	}
	return ValidateDocument(doc)
}
