package transform

import "errors"

// ErrUnknownKind indicates an operation kind name that does not parse.
var ErrUnknownKind = errors.New("unknown operation kind")
