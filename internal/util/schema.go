package util

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kinds of argument validation failures.
const (
	ValidationMissing  = "missing"
	ValidationExtra    = "extra"
	ValidationMistyped = "mistyped"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Kind    string `json:"kind"`    // missing, extra or mistyped
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Field is a single named, typed parameter of a function signature.
type Field struct {
	Name        string
	Type        string // JSON schema type
	Description string
	Required    bool
	Enum        []string
}

// FieldsFromStruct derives an ordered field list from a struct using
// reflection. Non-pointer fields without omitempty are required.
func FieldsFromStruct(structType any) []Field {
	t := reflect.TypeOf(structType)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		jsonTag := sf.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := sf.Name
		if jsonTag != "" {
			if parts := strings.Split(jsonTag, ","); parts[0] != "" {
				name = parts[0]
			}
		}

		f := Field{
			Name:        name,
			Type:        getJSONType(sf.Type),
			Description: sf.Tag.Get("description"),
			Required:    !hasOmitEmpty(jsonTag) && !isPointer(sf.Type),
		}
		if enum := sf.Tag.Get("enum"); enum != "" {
			f.Enum = strings.Split(enum, ",")
		}
		fields = append(fields, f)
	}
	return fields
}

// CreateSchema builds a JSON schema object for the given fields.
func CreateSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		prop := map[string]any{"type": f.Type}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		if f.Type == "array" {
			prop["items"] = map[string]any{}
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateArguments checks args against fields. Missing required fields are
// reported first, then unknown (extra) fields in name order, then mistyped
// values in signature order.
func ValidateArguments(args map[string]any, fields []Field) error {
	known := make(map[string]Field, len(fields))
	for _, f := range fields {
		known[f.Name] = f
		v, exists := args[f.Name]
		if f.Required && (!exists || v == nil) {
			return &ValidationError{Field: f.Name, Kind: ValidationMissing, Message: "required field is missing"}
		}
	}

	extras := make([]string, 0)
	for name := range args {
		if _, ok := known[name]; !ok {
			extras = append(extras, name)
		}
	}
	if len(extras) > 0 {
		sort.Strings(extras)
		return &ValidationError{Field: extras[0], Kind: ValidationExtra, Value: args[extras[0]], Message: "unexpected field"}
	}

	for _, f := range fields {
		v, exists := args[f.Name]
		if !exists || v == nil {
			continue
		}
		if !isValidType(v, f.Type) {
			return &ValidationError{
				Field:   f.Name,
				Kind:    ValidationMistyped,
				Value:   v,
				Message: fmt.Sprintf("expected type %s, got %T", f.Type, v),
			}
		}
		if len(f.Enum) > 0 && !contains(f.Enum, fmt.Sprint(v)) {
			return &ValidationError{
				Field:   f.Name,
				Kind:    ValidationMistyped,
				Value:   v,
				Message: fmt.Sprintf("value %v not in %v", v, f.Enum),
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// getJSONType returns the JSON schema type for a given Go type.
func getJSONType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getJSONType(t.Elem())
	default:
		return "string"
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		if _, ok := value.([]any); ok {
			return true
		}
		rv := reflect.ValueOf(value)
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	case "object":
		if _, ok := value.(map[string]any); ok {
			return true
		}
		return reflect.ValueOf(value).Kind() == reflect.Map
	default:
		return true // Unknown types are assumed valid
	}
}
