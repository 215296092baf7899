// Package storage defines the file-system abstraction used for note export.
package storage

// Provider is the interface for export file operations.
type Provider interface {
	// Write atomically writes content to path (relative to the export root).
	Write(path string, content []byte) error
	// List returns the relative paths of every .md file under the root.
	List() ([]string, error)
	// Delete removes the file at path (relative to the export root).
	Delete(path string) error
}
