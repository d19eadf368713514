package schema

import "testing"

func TestNewRequestSchema(t *testing.T) {
	_, err := NewRequestSchema()
	if err != nil {
		t.Errorf("NewRequestSchema() returned an error: %v", err)
	}
}

func TestSchema_Validate(t *testing.T) {
	s, err := NewRequestSchema()
	if err != nil {
		t.Fatalf("NewRequestSchema() returned an error: %v", err)
	}

	tests := []struct {
		name   string
		schema SchemaType
		data   string
		valid  bool
	}{
		{"create with direction", SchemaTypeCreateStudy, `{"study_name":"foo","direction":"minimize"}`, true},
		{"create with directions", SchemaTypeCreateStudy, `{"study_name":"foo","directions":["minimize","maximize"]}`, true},
		{"create without direction", SchemaTypeCreateStudy, `{"study_name":"foo"}`, false},
		{"create with both", SchemaTypeCreateStudy, `{"study_name":"foo","direction":"minimize","directions":["maximize"]}`, false},
		{"create with bad direction", SchemaTypeCreateStudy, `{"study_name":"foo","direction":"up"}`, false},
		{"create without name", SchemaTypeCreateStudy, `{"direction":"minimize"}`, false},
		{"tell complete", SchemaTypeTellTrial, `{"state":"Complete","values":[1.5]}`, true},
		{"tell running", SchemaTypeTellTrial, `{"state":"Running"}`, false},
		{"tell string values", SchemaTypeTellTrial, `{"state":"Complete","values":["a"]}`, false},
		{"user attrs", SchemaTypeUserAttrs, `{"user_attrs":{"owner":"alice"}}`, true},
		{"user attrs empty", SchemaTypeUserAttrs, `{"user_attrs":{}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Validate(tt.schema, []byte(tt.data))
			if err != nil {
				t.Fatalf("Validate() returned an error: %v", err)
			}
			if res.Valid() != tt.valid {
				t.Errorf("Validate() valid = %v, want %v (%v)", res.Valid(), tt.valid, res.Errors())
			}
		})
	}
}

func TestSchema_Validate_UnknownSchema(t *testing.T) {
	s, err := NewRequestSchema()
	if err != nil {
		t.Fatalf("NewRequestSchema() returned an error: %v", err)
	}

	if _, err := s.Validate(SchemaType(42), []byte(`{}`)); err != ErrSchemaNotFound {
		t.Errorf("Validate() error = %v, want %v", err, ErrSchemaNotFound)
	}
}
