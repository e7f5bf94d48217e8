package config

import (
	"github.com/xeipuuv/gojsonschema"

	pkerrors "github.com/systmms/pkdist/internal/errors"
)

// connectSchema constrains the connect argument: a JSON object mapping each
// connector name to either a parameter object or a shorthand address string.
const connectSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": ["object", "string"]
	}
}`

// validateConnectJSON checks the connect argument against the schema before
// any connector is constructed from it.
func validateConnectJSON(doc string) error {
	schema := gojsonschema.NewStringLoader(connectSchema)
	document := gojsonschema.NewStringLoader(doc)

	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return pkerrors.JSONArgumentError{Argument: "connect", Err: err}
	}

	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return pkerrors.ConfigError{
			Field:      "connect",
			Message:    "connect map does not match the expected shape: " + details,
			Suggestion: "Use a JSON object of connector name → parameter object, e.g. {\"vault\": {\"address\": \"https://vault:8200\"}}",
		}
	}
	return nil
}
