package schema

import "fmt"

// Args holds validated argument values keyed by name.
type Args map[string]interface{}

// Int returns an Int argument.
func (a Args) Int(name string) (int, error) {
	v, ok := a[name].(int)
	if !ok {
		return 0, a.mismatch(name, "int")
	}
	return v, nil
}

// String returns a String, Enum, URL or JSON argument.
func (a Args) String(name string) (string, error) {
	v, ok := a[name].(string)
	if !ok {
		return "", a.mismatch(name, "string")
	}
	return v, nil
}

// File returns a File argument.
func (a Args) File(name string) (UploadedFile, error) {
	v, ok := a[name].(UploadedFile)
	if !ok {
		return UploadedFile{}, a.mismatch(name, "file")
	}
	return v, nil
}

// Clone returns a shallow copy of a.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (a Args) mismatch(name, want string) error {
	v, ok := a[name]
	if !ok {
		return fmt.Errorf("argument %q is missing", name)
	}
	return fmt.Errorf("argument %q is %T, not %s", name, v, want)
}
