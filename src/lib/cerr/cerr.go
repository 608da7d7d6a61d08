package cerr

import (
	"github.com/cockroachdb/errors"
)

var _ error = ContextualError{}
var _ interface{ Unwrap() error } = ContextualError{}

type F = map[string]interface{}

// Context accumulates fields that describe the circumstances of an error.
// It is immutable, every Field call returns a new Context.
type Context struct {
	ContextFields F
}

func Field(key string, value interface{}) Context {
	return Context{}.Field(key, value)
}

func Fields(fields F) Context {
	return Context{ContextFields: copyFields(fields)}
}

func Wrap(err error) Wrapper {
	return Context{}.Wrap(err)
}

func Error(message string) error {
	return Context{}.error(message)
}

func (c Context) Field(key string, value interface{}) Context {
	fields := copyFields(c.ContextFields)
	fields[key] = value
	return Context{ContextFields: fields}
}

func (c Context) Wrap(err error) Wrapper {
	return Wrapper{
		context: c,
		cause:   err,
	}
}

func (c Context) Error(message string) error {
	return c.error(message)
}

func (c Context) error(message string) error {
	return ContextualError{
		Context: Fields(c.ContextFields),
		err:     errors.NewWithDepth(2, message),
	}
}

type Wrapper struct {
	context Context
	cause   error
}

func (w Wrapper) Error(message string) error {
	fields := F{}

	var inner ContextualError
	if errors.As(w.cause, &inner) {
		for key, value := range inner.Context.ContextFields {
			fields[key] = value
		}
	}

	// outer fields win over inner ones with the same key
	for key, value := range w.context.ContextFields {
		fields[key] = value
	}

	if w.cause == nil {
		return ContextualError{
			Context: Context{ContextFields: fields},
			err:     errors.NewWithDepth(1, message),
		}
	}

	return ContextualError{
		Context: Context{ContextFields: fields},
		err:     errors.WrapWithDepth(1, w.cause, message),
	}
}

type ContextualError struct {
	// left public so that loggers can inspect it
	Context Context
	err     error
}

func (c ContextualError) Error() string {
	return c.err.Error()
}

func (c ContextualError) Unwrap() error {
	return c.err
}

func copyFields(fields F) F {
	copied := F{}
	for key, value := range fields {
		copied[key] = value
	}

	return copied
}
