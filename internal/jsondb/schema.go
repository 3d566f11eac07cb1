// Generates the JSON Schema of the document format.

package jsondb

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema describing the file written by Store[T].
//
// The row schema is reflected from T with github.com/invopop/jsonschema, so
// `jsonschema:"description=..."` struct tags show up in the output.
func Schema[T any]() ([]byte, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type must be a struct or pointer to struct, got %s", t.Kind())
	}

	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	row := r.ReflectFromType(t)
	row.Version = ""

	props := jsonschema.NewProperties()
	props.Set("version", &jsonschema.Schema{Type: "string", Description: "Format version, currently " + formatVersion + "."})
	props.Set("last_id", &jsonschema.Schema{Type: "integer", Description: "Highest ID ever assigned; IDs at or below it are never reused."})
	props.Set("rows", &jsonschema.Schema{Type: "array", Items: row, Description: "Rows in insertion order."})
	schema := &jsonschema.Schema{
		Version:    jsonschema.Version,
		Title:      t.Name() + " collection",
		Type:       "object",
		Properties: props,
		Required:   []string{"version", "last_id", "rows"},
	}
	return json.MarshalIndent(schema, "", "  ")
}

// Schema returns the JSON Schema describing the backing file.
func (s *Store[T]) Schema() ([]byte, error) {
	return Schema[T]()
}
