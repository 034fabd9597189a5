package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxProbeBytes bounds the decoded probe image.
const MaxProbeBytes = 4 << 20

const itemIDSchema = `{"type": "string", "minLength": 1, "maxLength": 64}`

var schemaSources = map[reflect.Type]string{
	reflect.TypeOf(SendLockedItemRequest{}): `{
		"type": "object",
		"additionalProperties": false,
		"required": ["recipientId", "kind"],
		"properties": {
			"recipientId": {"type": "string", "minLength": 1, "maxLength": 128},
			"kind": {"enum": ["message", "file"]},
			"payload": {"type": "string", "maxLength": 65536},
			"fileName": {"type": "string", "minLength": 1, "maxLength": 255},
			"fileContent": {"type": "string", "contentEncoding": "base64"},
			"contentType": {"type": "string", "maxLength": 255}
		},
		"allOf": [
			{"if": {"properties": {"kind": {"const": "message"}}}, "then": {"required": ["payload"]}},
			{"if": {"properties": {"kind": {"const": "file"}}}, "then": {"required": ["fileName", "fileContent"]}}
		]
	}`,
	reflect.TypeOf(ItemRequest{}): `{
		"type": "object",
		"additionalProperties": false,
		"required": ["itemId"],
		"properties": {"itemId": ` + itemIDSchema + `}
	}`,
	reflect.TypeOf(UnlockRequest{}): fmt.Sprintf(`{
		"type": "object",
		"additionalProperties": false,
		"required": ["itemId", "probeImage"],
		"properties": {
			"itemId": %s,
			"probeImage": {"type": "string", "contentEncoding": "base64", "maxLength": %d}
		}
	}`, itemIDSchema, (MaxProbeBytes+2)/3*4),
	reflect.TypeOf(AssessRiskRequest{}): `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"deviceFingerprint": {"type": "string", "maxLength": 256},
			"knownDevice": {"type": "boolean"},
			"deviceType": {"type": "string", "maxLength": 64},
			"geoDeltaKm": {"type": "number", "minimum": 0},
			"localHour": {"type": "integer", "minimum": 0, "maximum": 23},
			"loginsLastHour": {"type": "integer", "minimum": 0},
			"recentFailures": {"type": "integer", "minimum": 0},
			"daysSinceLastLogin": {"type": "integer", "minimum": 0},
			"minLevel": {"enum": ["", "low", "medium", "high"]}
		}
	}`,
	reflect.TypeOf(EnrollFaceRequest{}): `{
		"type": "object",
		"additionalProperties": false,
		"required": ["descriptor"],
		"properties": {
			"descriptor": {"type": "array", "items": {"type": "number"}, "minItems": 1, "maxItems": 1024}
		}
	}`,
}

var schemas = compileSchemas()

func compileSchemas() map[reflect.Type]*jsonschema.Schema {
	out := make(map[reflect.Type]*jsonschema.Schema, len(schemaSources))
	for t, src := range schemaSources {
		out[t] = jsonschema.MustCompileString(t.Name()+".json", src)
	}
	return out
}

// Decode validates data against the schema of v's type and unmarshals it
// into v. Types without a schema must decode to a JSON object. Violations
// wrap common.ErrorValidation.
func Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: malformed json: %v", common.ErrorValidation, err)
	}

	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if schema, ok := schemas[t]; ok {
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	} else if _, isObject := doc.(map[string]any); !isObject {
		return fmt.Errorf("%w: request must be a json object", common.ErrorValidation)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}
