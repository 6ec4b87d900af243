package coord

import "errors"

// ErrInvalidPath indicates a path key that does not parse.
var ErrInvalidPath = errors.New("invalid node path")
