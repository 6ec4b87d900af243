package analysis

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates a response that doesn't have the expected shape.
var ErrMalformedResponse = errors.New("malformed analysis response")

// ErrUnknownLanguage indicates a language without a FLORES code.
var ErrUnknownLanguage = errors.New("unknown language")

// ServiceError is a failure reported by the service in a detail field.
type ServiceError struct {
	Detail string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("analysis service: %s", e.Detail)
}
