// Package objectstore provides a NATS-based implementation of the ObjectStore interface.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/book-expert/fishaudio-service/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Object metadata keys.
const (
	metaMimeType = "mime_type"
	metaFileName = "file_name"
)

// NatsObjectStore implements the core.ObjectStore interface using NATS JetStream.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// New creates the bucket, or binds to it when it already exists.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Binary attachments for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// Download retrieves an object and its metadata from the NATS object store.
func (n *NatsObjectStore) Download(_ context.Context, key string) (core.Object, error) {
	result, err := n.store.Get(key)
	if err != nil {
		return core.Object{}, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(result)
	closeErr := result.Close()

	if readErr != nil {
		return core.Object{}, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	obj := core.Object{Data: data}

	info, infoErr := result.Info()
	if infoErr == nil && info != nil {
		obj.MimeType = info.Metadata[metaMimeType]
		obj.FileName = info.Metadata[metaFileName]
	}

	if closeErr != nil {
		return obj, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return obj, nil
}

// Upload saves an object and its metadata to the NATS object store.
func (n *NatsObjectStore) Upload(_ context.Context, key string, obj core.Object) error {
	metadata := map[string]string{}

	if obj.MimeType != "" {
		metadata[metaMimeType] = obj.MimeType
	}

	if obj.FileName != "" {
		metadata[metaFileName] = obj.FileName
	}

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    metadata,
		Opts:        nil,
	}, bytes.NewReader(obj.Data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}
