// Package schemagen produces the JSON schema of the settings document, for
// tooling and documentation.
package schemagen

import (
	"reflect"
	"strconv"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a JSON schema from a configuration object.
func GenerateSchema(title string, configObject interface{}) *jsonschema.Schema {
	// By default, the library generates schemas with a top-level $ref that
	// references a definition. That breaks tooling that tries to generate
	// forms from the schemas, so references are disabled altogether.
	var reflector = jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	var schema = reflector.ReflectFromType(reflect.TypeOf(configObject))
	schema.AdditionalProperties = nil // Unset means additional properties are permitted on the root object
	schema.Definitions = nil          // Since no references are used, these definitions are just noise
	schema.Title = title
	walkSchema(schema, fixSchemaOrderingStrings)

	return schema
}

// walkSchema invokes visit on every property of the root schema, and then
// traverses each of these sub-schemas recursively. The visit function should
// modify the provided schema in-place.
func walkSchema(root *jsonschema.Schema, visits ...func(t *jsonschema.Schema)) {
	if root.Properties != nil {
		for pair := root.Properties.Oldest(); pair != nil; pair = pair.Next() {
			for _, visit := range visits {
				visit(pair.Value)
			}
			walkSchema(pair.Value, visits...)
		}
	}
}

// fixSchemaOrderingStrings converts "order" extras from strings to integers,
// since struct tag extras always parse as strings.
func fixSchemaOrderingStrings(t *jsonschema.Schema) {
	for key, val := range t.Extras {
		if key != "order" {
			continue
		}
		if str, ok := val.(string); ok {
			if converted, err := strconv.Atoi(str); err == nil {
				t.Extras[key] = converted
			}
		}
	}
}
