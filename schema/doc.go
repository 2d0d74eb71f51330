// Package schema declares the input arguments of a model operation: their
// names, kinds, defaults and constraints. A Schema turns the raw string
// values of a request (form fields, query parameters, CLI flags) and its
// uploaded files into validated, typed Args, rejecting bad input before the
// model sees it.
package schema
