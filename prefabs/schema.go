package prefabs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const areaSchemaURL = "area.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func areaSchemaCompiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(areaSchemaURL, bytes.NewReader(areaSchema)); err != nil {
			schemaErr = fmt.Errorf("prefabs: add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(areaSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("prefabs: compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateAreaSpec checks YAML area data against the embedded JSON schema.
// The document goes through JSON so the validator sees JSON value types.
func ValidateAreaSpec(data []byte) error {
	schema, err := areaSchemaCompiled()
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	return schema.Validate(v)
}
