package convert

import (
	"errors"
	"fmt"

	"github.com/StinkyLord/sbomkit/internal/model"
)

var (
	// ErrDeserialize: the source adapter cannot read the input structure.
	ErrDeserialize = errors.New("cannot deserialize document")

	// ErrUnsupportedSchema: no adapter is registered for a schema.
	ErrUnsupportedSchema = errors.New("unsupported schema")

	// ErrSerialize: the target adapter cannot produce its output.
	ErrSerialize = errors.New("cannot serialize document")

	// ErrDanglingReference: a relationship points at no component. During
	// conversion this means the id remap is inconsistent.
	ErrDanglingReference = model.ErrDanglingReference
)

// ConversionError carries one of the sentinels above as its Kind, so
// callers can use errors.Is(err, ErrSerialize) and friends.
type ConversionError struct {
	Kind   error
	Schema model.Schema
	Err    error
}

func (e *ConversionError) Error() string {
	msg := e.Kind.Error()
	if e.Schema != "" {
		msg += " (" + string(e.Schema) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// DeserializeError formats a detail message as an ErrDeserialize for schema.
func DeserializeError(schema model.Schema, format string, args ...any) error {
	return &ConversionError{Kind: ErrDeserialize, Schema: schema, Err: fmt.Errorf(format, args...)}
}

// SerializeError formats a detail message as an ErrSerialize for schema.
func SerializeError(schema model.Schema, format string, args ...any) error {
	return &ConversionError{Kind: ErrSerialize, Schema: schema, Err: fmt.Errorf(format, args...)}
}

func unsupportedSchema(schema model.Schema) error {
	return &ConversionError{Kind: ErrUnsupportedSchema, Schema: schema}
}

func danglingReference(schema model.Schema, err error) error {
	return &ConversionError{Kind: ErrDanglingReference, Schema: schema, Err: err}
}
