package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is one failed constraint. Path is the struct namespace without
// the root type, e.g. "FetchTimeout.Read".
type FieldError struct {
	Path    string
	Tag     string
	Message string
}

// ValidationError lists every constraint a value failed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Path+" "+f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Field returns the message recorded for path, or "".
func (e *ValidationError) Field(path string) string {
	for _, f := range e.Fields {
		if f.Path == path {
			return f.Message
		}
	}
	return ""
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Path:    fieldPath(fe),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "printascii":
		return "must contain printable ASCII characters only"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "url":
		return "must be an absolute URL"
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}
