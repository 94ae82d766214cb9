package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Field describes one JSON property derived from a struct field's tags:
// json for the name and optionality, desc for the generation hint. Fields
// tagged advisory are recomputed after generation and never required.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	// Items describes array elements; Fields the properties of an object.
	Items  *Field
	Fields []Field
}

// Schema is the ordered description of a content type. The same value
// renders the format instructions sent to the provider and validates what
// comes back.
type Schema struct {
	Name   string
	Fields []Field
}

// SchemaOf derives the schema of T, which must be a struct.
func SchemaOf[T any]() Schema {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ai.SchemaOf: %s is not a struct", t))
	}
	return Schema{Name: t.Name(), Fields: structFields(t)}
}

func structFields(t reflect.Type) []Field {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, omitempty, skip := jsonName(sf)
		if skip {
			continue
		}
		f := describe(sf.Type)
		f.Name = name
		f.Description = sf.Tag.Get("desc")
		f.Required = !omitempty && sf.Type.Kind() != reflect.Pointer && sf.Tag.Get("advisory") == ""
		fields = append(fields, f)
	}
	return fields
}

func jsonName(sf reflect.StructField) (name string, omitempty, skip bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func describe(t reflect.Type) Field {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return Field{Type: TypeString}
	case reflect.Bool:
		return Field{Type: TypeBoolean}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Field{Type: TypeInteger}
	case reflect.Float32, reflect.Float64:
		return Field{Type: TypeNumber}
	case reflect.Slice, reflect.Array:
		item := describe(t.Elem())
		return Field{Type: TypeArray, Items: &item}
	case reflect.Struct:
		return Field{Type: TypeObject, Fields: structFields(t)}
	default:
		// maps and interfaces are accepted as free-form objects
		return Field{Type: TypeObject}
	}
}

// Instructions renders the format instructions placed into prompts.
func (s Schema) Instructions() string {
	var b strings.Builder
	b.WriteString("Respond with ONLY a single valid JSON object. Do not wrap it in markdown and do not add any text before or after it.\n")
	b.WriteString("The JSON object must conform to this exact structure:\n")
	writeSkeleton(&b, s.Fields, 0)
	b.WriteString("\n")

	var notes, optional []string
	collectNotes(s.Fields, "", &notes, &optional)
	if len(notes) > 0 {
		b.WriteString("\nField descriptions:\n")
		for _, n := range notes {
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	if len(optional) > 0 {
		sort.Strings(optional)
		b.WriteString("\nOptional fields (may be omitted): ")
		b.WriteString(strings.Join(optional, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

func writeSkeleton(b *strings.Builder, fields []Field, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString("{\n")
	for i, f := range fields {
		fmt.Fprintf(b, "%s  %q: ", indent, f.Name)
		writeValue(b, f, depth+1)
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent + "}")
}

func writeValue(b *strings.Builder, f Field, depth int) {
	switch f.Type {
	case TypeArray:
		b.WriteString("[")
		if f.Items != nil {
			writeValue(b, *f.Items, depth)
		}
		b.WriteString("]")
	case TypeObject:
		if len(f.Fields) == 0 {
			b.WriteString("{}")
			return
		}
		writeSkeleton(b, f.Fields, depth)
	default:
		b.WriteString(string(f.Type))
	}
}

func collectNotes(fields []Field, prefix string, notes, optional *[]string) {
	for _, f := range fields {
		path := prefix + f.Name
		if f.Description != "" {
			*notes = append(*notes, fmt.Sprintf("- %s (%s): %s", path, f.Type, f.Description))
		}
		if !f.Required {
			*optional = append(*optional, path)
		}
		switch {
		case f.Type == TypeObject:
			collectNotes(f.Fields, path+".", notes, optional)
		case f.Type == TypeArray && f.Items != nil && f.Items.Type == TypeObject:
			collectNotes(f.Items.Fields, path+"[].", notes, optional)
		}
	}
}

// Violation is one place where a decoded document does not match a Schema.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// Validate checks a decoded JSON document (as produced by json.Unmarshal
// into any) for required fields and JSON types.
func (s Schema) Validate(doc any) []Violation {
	obj, ok := doc.(map[string]any)
	if !ok {
		return []Violation{{Path: "$", Message: "expected a JSON object, got " + jsonKind(doc)}}
	}
	var out []Violation
	validateObject(obj, s.Fields, "$", &out)
	return out
}

func validateObject(obj map[string]any, fields []Field, path string, out *[]Violation) {
	for _, f := range fields {
		p := path + "." + f.Name
		v, present := obj[f.Name]
		if !present || v == nil {
			if f.Required {
				*out = append(*out, Violation{Path: p, Message: "required field is missing"})
			}
			continue
		}
		validateValue(v, f, p, out)
	}
}

func validateValue(v any, f Field, path string, out *[]Violation) {
	mismatch := func() {
		*out = append(*out, Violation{
			Path:    path,
			Message: fmt.Sprintf("expected %s, got %s", f.Type, jsonKind(v)),
		})
	}

	switch f.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			mismatch()
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			mismatch()
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			mismatch()
		}
	case TypeInteger:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			mismatch()
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			mismatch()
			return
		}
		if f.Items == nil {
			return
		}
		for i, item := range items {
			if item == nil {
				*out = append(*out, Violation{Path: fmt.Sprintf("%s[%d]", path, i), Message: "null array element"})
				continue
			}
			validateValue(item, *f.Items, fmt.Sprintf("%s[%d]", path, i), out)
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			mismatch()
			return
		}
		validateObject(obj, f.Fields, path, out)
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
