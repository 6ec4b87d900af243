package segment

import "errors"

// ErrSegmentNotFound indicates a split was requested on an unknown segment id.
var ErrSegmentNotFound = errors.New("segment not found")
