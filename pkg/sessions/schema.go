package sessions

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects File into the JSON Schema embedded as session.schema.json.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "json",
	}
	schema := r.Reflect(&File{})
	schema.ID = "https://github.com/grovetools/runner/session.schema.json"
	schema.Title = "Runner session file"
	schema.Description = "A session file written by a hook process into the runner sessions directory."
	return json.MarshalIndent(schema, "", "  ")
}
