package toolapi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/parameter-schema.meta.json
var metaSchemaJSON []byte

const metaSchemaURL = "https://hostbridge.dev/schemas/parameter-schema.meta.json"

var metaSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(metaSchemaURL, strings.NewReader(string(metaSchemaJSON))); err != nil {
		panic(fmt.Sprintf("toolapi: failed to load embedded meta-schema: %v", err))
	}
	schema, err := compiler.Compile(metaSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("toolapi: failed to compile embedded meta-schema: %v", err))
	}
	metaSchema = schema
}

// ValidationError describes a single schema validation failure, formatted in
// the field/message/suggestion shape the teacher's config validation used.
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Field, e.Message))
	if e.Suggestion != "" {
		sb.WriteString(" (" + e.Suggestion + ")")
	}
	return sb.String()
}

// ValidateParameterSchema checks that schemaJSON is a well-formed draft-07
// subset document per spec §4.5 (types, description, default, min/max,
// enum, required at the object level). It does not validate any instance
// against the schema — that happens in ValidateArguments.
func ValidateParameterSchema(schemaJSON json.RawMessage) error {
	if len(schemaJSON) == 0 {
		return &ValidationError{
			Field:      "parameterSchema",
			Message:    "schema is empty",
			Suggestion: "provide at least {\"type\": \"object\", \"properties\": {}}",
		}
	}

	var doc interface{}
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return &ValidationError{Field: "parameterSchema", Message: "not valid JSON: " + err.Error()}
	}

	if err := metaSchema.Validate(doc); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

// ValidateArguments compiles schemaJSON as a draft-07 schema and validates
// argumentsJSON against it, used by invoke_tool to produce the invalid-arg
// class of error named in spec §4.2 and §7. The returned error's message
// names the offending field, satisfying scenario S4.
func ValidateArguments(schemaJSON json.RawMessage, argumentsJSON string) error {
	if len(schemaJSON) == 0 {
		return nil
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("tool schema is not valid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	const url = "argument-schema.json"
	if err := compiler.AddResource(url, strings.NewReader(string(schemaJSON))); err != nil {
		return fmt.Errorf("failed to load tool schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("failed to compile tool schema: %w", err)
	}

	args := argumentsJSON
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	var argDoc interface{}
	if err := json.Unmarshal([]byte(args), &argDoc); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	if err := schema.Validate(argDoc); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

func formatSchemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	leaf := deepestCause(ve)
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "<root>"
	}
	return fmt.Errorf("%s: %s", loc, leaf.Message)
}

// deepestCause walks to the most specific validation failure so messages
// name the actual missing/invalid field instead of a generic "oneOf" failure.
func deepestCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// NormalizeSchema fills in a default empty-object schema when none was
// supplied, and adds an empty "properties" object to bare "type":"object"
// schemas, matching the teacher's mcp.NormalizeInputSchema behavior so
// downstream JSON-Schema consumers (including the MCP SDK) never see a
// schema that is technically incomplete.
func NormalizeSchema(schemaJSON json.RawMessage) json.RawMessage {
	if len(schemaJSON) == 0 {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return schemaJSON
	}

	typeVal, hasType := schema["type"]
	typeStr, isString := typeVal.(string)
	if !hasType || !isString || typeStr != "object" {
		return schemaJSON
	}

	_, hasProperties := schema["properties"]
	_, hasAdditional := schema["additionalProperties"]
	if hasProperties || hasAdditional {
		return schemaJSON
	}

	schema["properties"] = map[string]interface{}{}
	out, err := json.Marshal(schema)
	if err != nil {
		return schemaJSON
	}
	return out
}
