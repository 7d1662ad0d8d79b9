// Command schema-generator regenerates the JSON Schemas checked into the
// repository. Run it from the module root:
//
//	go run ./tools/schema-generator
package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/logging"
	"github.com/grovetools/runner/pkg/sessions"
)

type target struct {
	path     string
	generate func() ([]byte, error)
}

func main() {
	logger := logging.NewLogger("schema-generator")

	targets := []target{
		// Embedded by the session validator.
		{filepath.Join("pkg", "sessions", "session.schema.json"), sessions.GenerateSchema},
		{filepath.Join("config", "runner.schema.json"), config.GenerateSchema},
		{filepath.Join("logging", "logging.schema.json"), loggingSchema},
	}

	for _, t := range targets {
		data, err := t.generate()
		if err != nil {
			logger.WithError(err).WithField("path", t.path).Fatal("Error generating schema")
		}
		if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
			logger.WithError(err).Fatal("Error creating schema directory")
		}
		if err := os.WriteFile(t.path, append(data, '\n'), 0644); err != nil {
			logger.WithError(err).WithField("path", t.path).Fatal("Error writing schema file")
		}
		logger.WithField("path", t.path).Info("Generated schema")
	}
}

// loggingSchema describes the logging extension section of runner.yml.
func loggingSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}
	schema := r.Reflect(&logging.Config{})
	schema.Title = "Runner logging configuration"
	schema.Description = "Schema for the 'logging' section of runner.yml."
	schema.Required = nil
	return json.MarshalIndent(schema, "", "  ")
}
