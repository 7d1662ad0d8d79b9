package sessions

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed session.schema.json
var embeddedSchemaData []byte

// Validator checks decoded session documents against the embedded JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

var (
	validatorOnce sync.Once
	validator     *Validator
	validatorErr  error
)

func defaultValidator() (*Validator, error) {
	validatorOnce.Do(func() {
		validator, validatorErr = NewValidator()
	})
	return validator, validatorErr
}

// NewValidator compiles the embedded session schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("session.json", strings.NewReader(string(embeddedSchemaData))); err != nil {
		return nil, fmt.Errorf("failed to add embedded schema resource: %w", err)
	}

	schema, err := compiler.Compile("session.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks a document produced by json.Unmarshal into interface{}.
func (v *Validator) Validate(doc interface{}) error {
	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			if len(messages) == 0 {
				messages = append(messages, validationErr.Message)
			}
			return fmt.Errorf("schema validation failed: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*messages = append(*messages, fmt.Sprintf("%s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}

// Schema returns the embedded session file schema.
func Schema() []byte {
	return embeddedSchemaData
}
