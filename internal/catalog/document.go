package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ObjectStore is the slice of blob storage the DocumentStore needs.
// *s3util.Bucket satisfies it; tests use an in-memory fake.
type ObjectStore interface {
	// Get returns the object bytes, or found=false if the key does not exist.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// DocumentStore reads and writes the aggregate catalog document at a fixed
// object key. Writes are last-writer-wins; there is no version check, so
// overlapping writers can lose updates.
type DocumentStore struct {
	Objects ObjectStore
	Key     string
}

// Load fetches the current document. A missing key is not an error: the
// catalog starts from empty on first use.
func (s *DocumentStore) Load(ctx context.Context) (Document, error) {
	data, found, err := s.Objects.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.Key, err)
	}
	if !found {
		log.Debug().Str("key", s.Key).Msg("No existing catalog document, starting empty")
		return Document{}, nil
	}
	return ParseDocument(data)
}

// Save writes the full document back to its key.
func (s *DocumentStore) Save(ctx context.Context, doc Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := s.Objects.Put(ctx, s.Key, data, "application/json"); err != nil {
		return fmt.Errorf("write catalog %s: %w", s.Key, err)
	}
	return nil
}
