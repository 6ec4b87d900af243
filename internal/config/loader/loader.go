// Package loader reads raw configuration maps for spanstorm.
//
// Configuration comes from TOML files (with @include support) and from
// SPANSTORM_* environment variables. Both produce nested map[string]any
// values keyed by section, which the config package merges and decodes.
package loader

import "os"

// Loader produces a raw configuration map from a single source.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem reads configuration files. Tests substitute an in-memory one.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
