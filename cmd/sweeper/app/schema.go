package app

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const schemaURL = "sweeper.schema.json"

var (
	//go:embed schema.json
	schemaData []byte

	configSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal config schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add config schema resource: %w", err)
			return
		}

		if configSchema, err = compiler.Compile(schemaURL); err != nil {
			compileErr = fmt.Errorf("compile config schema: %w", err)
		}
	})

	return compileErr
}

// ValidateSchema checks a YAML configuration document against the embedded JSON schema.
func ValidateSchema(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round trip through JSON so the validator sees JSON types only
	p, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting config to JSON: %w", err)
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(p))
	if err != nil {
		return fmt.Errorf("converting config to JSON: %w", err)
	}

	if err = configSchema.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}
