package schema

import (
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/xeipuuv/gojsonschema"
)

type SchemaType int

const (
	SchemaTypeCreateStudy SchemaType = iota
	SchemaTypeTellTrial
	SchemaTypeUserAttrs
)

func (t SchemaType) String() string {
	switch t {
	case SchemaTypeCreateStudy:
		return "create_study"
	case SchemaTypeTellTrial:
		return "tell_trial"
	case SchemaTypeUserAttrs:
		return "user_attrs"
	default:
		return "unknown"
	}
}

var ErrSchemaNotFound = errors.New("schema not found")

type Schema struct {
	schemas map[SchemaType]*gojsonschema.Schema
}

func (s *Schema) Get(schemaType SchemaType) (*gojsonschema.Schema, error) {
	schema, ok := s.schemas[schemaType]
	if !ok {
		return nil, ErrSchemaNotFound
	}

	return schema, nil
}

// Validate validates the raw json document against the schema.
func (s *Schema) Validate(schemaType SchemaType, data []byte) (*gojsonschema.Result, error) {
	schema, err := s.Get(schemaType)
	if err != nil {
		return nil, err
	}

	return schema.Validate(gojsonschema.NewBytesLoader(data))
}

//go:embed create-study.json
var createStudy json.RawMessage

//go:embed tell-trial.json
var tellTrial json.RawMessage

//go:embed user-attrs.json
var userAttrs json.RawMessage

// NewRequestSchema compiles the request body schemas.
func NewRequestSchema() (*Schema, error) {
	sources := map[SchemaType]json.RawMessage{
		SchemaTypeCreateStudy: createStudy,
		SchemaTypeTellTrial:   tellTrial,
		SchemaTypeUserAttrs:   userAttrs,
	}

	schemas := make(map[SchemaType]*gojsonschema.Schema, len(sources))
	for t, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(source))
		if err != nil {
			return nil, err
		}
		schemas[t] = schema
	}

	return &Schema{schemas: schemas}, nil
}
