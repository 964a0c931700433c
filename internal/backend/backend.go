package backend

import (
	"fmt"

	"finly/internal/storage"
)

// Type selects which store implementation backs the services.
type Type string

const (
	// SQLiteBackend is the embedded relational store used on devices with
	// a filesystem database.
	SQLiteBackend Type = "sqlite"
	// FileBackend is the flat keyed-blob store used where only blob
	// storage is available.
	FileBackend Type = "file"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FileBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build either store.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// File store specific
	DataDirectory string
}

// Validate checks the configuration for the selected backend type.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	}
	return nil
}

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// Result contains the store and its cleanup function.
type Result struct {
	Store   storage.Store
	Cleanup CleanupFunc
}
