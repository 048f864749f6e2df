// Package schema discovers a GraphQL schema through introspection and holds
// the type and field names the fuzzer draws from.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"gqlfuzz/internal/graphql"
)

// FieldDescriptor names one field of a type.
type FieldDescriptor struct {
	Name string `json:"name"`
}

// TypeDescriptor is one entry of __schema.types. Fields is empty for scalars,
// enums and input objects.
type TypeDescriptor struct {
	Name   string            `json:"name"`
	Fields []FieldDescriptor `json:"fields"`
}

// IsMeta reports whether the type belongs to the introspection system (__Type, __Field, ...).
func (t TypeDescriptor) IsMeta() bool {
	return strings.HasPrefix(t.Name, "__")
}

// Document is the parsed introspection result. It is not modified after discovery.
type Document struct {
	QueryType    string           `json:"query_type,omitempty"`
	MutationType string           `json:"mutation_type,omitempty"`
	Types        []TypeDescriptor `json:"types"`
}

// FieldCount returns the number of fields across all types.
func (d *Document) FieldCount() int {
	n := 0
	for _, t := range d.Types {
		n += len(t.Fields)
	}
	return n
}

// ErrMalformed is wrapped when a response does not carry data.__schema.types.
var ErrMalformed = errors.New("malformed introspection result")

// Parse converts the untyped introspection response into a Document.
func Parse(resp graphql.Response) (*Document, error) {
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformed)
	}
	root, ok := data["__schema"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing data.__schema", ErrMalformed)
	}
	rawTypes, ok := root["types"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing data.__schema.types", ErrMalformed)
	}

	doc := &Document{
		QueryType:    operationTypeName(root["queryType"]),
		MutationType: operationTypeName(root["mutationType"]),
		Types:        make([]TypeDescriptor, 0, len(rawTypes)),
	}

	for i, raw := range rawTypes {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: types[%d] is not an object", ErrMalformed, i)
		}
		name, ok := obj["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: types[%d] has no name", ErrMalformed, i)
		}

		td := TypeDescriptor{Name: name, Fields: []FieldDescriptor{}}
		// fields is null for non-object types.
		if rawFields, ok := obj["fields"].([]interface{}); ok {
			for _, rf := range rawFields {
				fobj, ok := rf.(map[string]interface{})
				if !ok {
					continue
				}
				if fname, ok := fobj["name"].(string); ok && fname != "" {
					td.Fields = append(td.Fields, FieldDescriptor{Name: fname})
				}
			}
		}
		doc.Types = append(doc.Types, td)
	}

	return doc, nil
}

func operationTypeName(v interface{}) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := obj["name"].(string)
	return name
}
