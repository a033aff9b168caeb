// Package core defines the interfaces shared between the worker and its
// storage backends.
package core

import "context"

// Object is a stored binary attachment together with its metadata.
type Object struct {
	Data     []byte
	MimeType string
	FileName string
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) (Object, error)
	Upload(ctx context.Context, key string, obj Object) error
}
