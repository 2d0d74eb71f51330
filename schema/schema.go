package schema

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ValidationError reports an argument that failed coercion or validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("argument %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Schema is an ordered, immutable set of argument declarations.
type Schema struct {
	name     string
	fields   []Field
	index    map[string]int
	compiled *jsonschema.Schema
}

// New builds a schema and compiles its JSON Schema rendering.
func New(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		if f.Kind == Enum && len(f.Choices) == 0 {
			return nil, fmt.Errorf("enum field %q has no choices", f.Name)
		}
		s.index[f.Name] = i
	}

	doc, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, err
	}
	resource := name + ".json"
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(resource, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	if s.compiled, err = c.Compile(resource); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, fields ...Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a declared field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// JSONSchema renders the declaration as a JSON Schema object.
func (s *Schema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.fields))
	required := []string{}
	for _, f := range s.fields {
		p := map[string]interface{}{}
		switch f.Kind {
		case String, JSON:
			p["type"] = "string"
		case Int:
			p["type"] = "integer"
		case Float:
			p["type"] = "number"
		case Bool:
			p["type"] = "boolean"
		case Enum:
			p["type"] = "string"
			p["enum"] = f.Choices
		case File:
			p["type"] = "string"
			p["format"] = "binary"
		case URL:
			p["type"] = "string"
			p["format"] = "uri"
		case FloatList:
			p["type"] = "array"
			p["items"] = map[string]interface{}{"type": "number"}
		}
		if f.Min != nil {
			p["minimum"] = *f.Min
		}
		if f.Max != nil {
			p["maximum"] = *f.Max
		}
		if f.Default != nil {
			p["default"] = f.Default
		}
		if f.Description != "" {
			p["description"] = f.Description
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                s.name,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

// Help describes each argument the way the metadata endpoint reports it.
func (s *Schema) Help() map[string]interface{} {
	out := make(map[string]interface{}, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = map[string]interface{}{
			"type":     f.Kind.String(),
			"default":  f.Default,
			"required": f.Required,
			"help":     f.help(),
			"location": string(f.location()),
		}
	}
	return out
}

// Parse coerces raw values and uploaded files into Args. Absent optional
// arguments take their default, absent required ones are an error, and
// undeclared values are passed through as strings.
func (s *Schema) Parse(values url.Values, files map[string]UploadedFile) (Args, error) {
	args := make(Args, len(s.fields))
	instance := make(map[string]interface{}, len(s.fields))

	for _, f := range s.fields {
		var (
			v   interface{}
			err error
		)
		raw, present := values[f.Name]
		if f.Kind == File {
			var file UploadedFile
			file, present = files[f.Name]
			if present {
				v = file
				instance[f.Name] = file.Name
			}
		} else if present && len(raw) > 0 {
			if v, err = coerce(f, raw); err != nil {
				return nil, &ValidationError{Field: f.Name, Err: err}
			}
			instance[f.Name] = toInstance(v)
		} else {
			present = false
		}

		if !present {
			if f.Required {
				return nil, &ValidationError{Field: f.Name, Err: errors.New("missing required argument")}
			}
			v = copyDefault(f.Default)
			if v != nil {
				instance[f.Name] = toInstance(v)
			}
		}
		args[f.Name] = v
	}

	if err := s.compiled.Validate(instance); err != nil {
		return nil, fromSchemaError(err)
	}

	for k, raw := range values {
		if _, declared := s.index[k]; declared || len(raw) == 0 {
			continue
		}
		if len(raw) == 1 {
			args[k] = raw[0]
		} else {
			args[k] = append([]string(nil), raw...)
		}
	}
	for k, file := range files {
		if _, declared := s.index[k]; !declared {
			args[k] = file
		}
	}
	return args, nil
}

func coerce(f Field, raw []string) (interface{}, error) {
	value := strings.TrimSpace(raw[0])
	switch f.Kind {
	case String:
		// free text is kept verbatim
		return raw[0], nil
	case Enum:
		return value, nil
	case Int:
		return strconv.Atoi(value)
	case Float:
		return strconv.ParseFloat(value, 64)
	case Bool:
		return parseBool(value)
	case URL:
		u, err := url.ParseRequestURI(value)
		if err != nil {
			return nil, err
		}
		return u.String(), nil
	case JSON:
		if !json.Valid([]byte(value)) {
			return nil, errors.New("not a valid JSON document")
		}
		return value, nil
	case FloatList:
		return parseFloats(raw)
	}
	return nil, fmt.Errorf("cannot take a %s argument as a value", f.Kind)
}

// copyDefault keeps callers of Parse from sharing slices with the
// declaration.
func copyDefault(v interface{}) interface{} {
	switch d := v.(type) {
	case []float64:
		return append([]float64(nil), d...)
	case []string:
		return append([]string(nil), d...)
	}
	return v
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	return strconv.ParseBool(value)
}

// parseFloats accepts repeated values, one comma separated value, or a JSON array.
func parseFloats(raw []string) ([]float64, error) {
	if len(raw) == 1 {
		value := strings.TrimSpace(raw[0])
		if strings.HasPrefix(value, "[") {
			var out []float64
			if err := json.Unmarshal([]byte(value), &out); err != nil {
				return nil, err
			}
			return out, nil
		}
		raw = strings.Split(value, ",")
	}
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// toInstance converts a coerced value to the shape the validator expects.
func toInstance(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case []float64:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	}
	return v
}

func fromSchemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Err: err}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &ValidationError{
		Field: strings.TrimPrefix(leaf.InstanceLocation, "/"),
		Err:   errors.New(leaf.Message),
	}
}
