// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package seed

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the world file schema.
const SchemaID = "https://worldkeeper.dev/schemas/world.schema.json"

var (
	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
)

// GenerateSchema generates the JSON Schema for world files.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&WorldFile{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Worldkeeper World File"
	schema.Description = "Schema for world.yaml seed files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

// ValidateSchema validates YAML data against the world file schema.
func ValidateSchema(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return oops.Code(CodeInvalid).Errorf("world file is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "invalid YAML")
	}
	// Round-trip through JSON so the validator sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "world file is not representable as JSON")
	}
	instance, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code(CodeInvalid).Wrap(err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(instance); err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "schema validation failed")
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = oops.With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("world.schema.json", doc); err != nil {
			compileErr = oops.With("operation", "add schema resource").Wrap(err)
			return
		}
		compiled, compileErr = c.Compile("world.schema.json")
		if compileErr != nil {
			compileErr = oops.With("operation", "compile schema").Wrap(compileErr)
		}
	})
	return compiled, compileErr
}
