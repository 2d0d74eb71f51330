package schema

import "fmt"

// Kind is the type of an argument.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Enum
	File
	URL
	FloatList
	JSON
)

func (k Kind) String() string {
	switch k {
	case String:
		return "str"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Enum:
		return "enum"
	case File:
		return "file"
	case URL:
		return "url"
	case FloatList:
		return "list[float]"
	case JSON:
		return "json"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Location tells where a request carries the argument.
type Location string

const (
	Query Location = "query"
	Form  Location = "form"
)

// Field declares one argument.
type Field struct {
	Name string
	Kind Kind

	// Default is used when an optional argument is absent. Its Go type
	// follows the kind: string, int, float64, bool or []float64. A nil
	// Default leaves the argument null.
	Default interface{}

	Required bool

	// Min and Max bound Int and Float arguments when set.
	Min *float64
	Max *float64

	// Choices lists the accepted values of an Enum argument.
	Choices []string

	Description string
	Location    Location
}

// Bound returns a pointer to v, for Field.Min and Field.Max.
func Bound(v float64) *float64 {
	return &v
}

// UploadedFile is the value of a File argument.
type UploadedFile struct {
	// Path is where the content can be read from.
	Path string

	// Name is the client side file name.
	Name string

	ContentType string
}

func (f Field) help() string {
	if len(f.Choices) == 0 {
		return f.Description
	}
	return fmt.Sprintf("%s. Choices: %v", f.Description, f.Choices)
}

func (f Field) location() Location {
	if f.Location != "" {
		return f.Location
	}
	if f.Kind == File {
		return Form
	}
	return Query
}
