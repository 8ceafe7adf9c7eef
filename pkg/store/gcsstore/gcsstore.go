// Package gcsstore keeps the ledger as a JSON object in a Cloud Storage bucket.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/store"
)

type Store struct {
	client *storage.Client
	bucket string
	object string
}

var _ store.Store = (*Store)(nil)

// New uses application default credentials.
func New(ctx context.Context, bucket, object string) (*Store, error) {
	if bucket == "" || object == "" {
		return nil, errors.New("bucket and object are required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, object: object}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Load(ctx context.Context) (models.Ledger, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return models.Ledger{}, nil
	}
	if err != nil {
		return models.Ledger{}, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return models.Ledger{}, fmt.Errorf("read GCS object: %w", err)
	}
	return store.Decode(data)
}

// Save uploads the whole document; the object only changes when Close succeeds.
func (s *Store) Save(ctx context.Context, ledger models.Ledger) error {
	data, err := store.Encode(ledger)
	if err != nil {
		return err
	}

	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer: %w", err)
	}
	return nil
}
