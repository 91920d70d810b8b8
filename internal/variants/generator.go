package variants

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/instagram-image-sync/internal/catalog"
)

// OptimizedPrefix is the key prefix for generated renditions.
const OptimizedPrefix = "optimized/"

// originalPrefix mirrors sync.OriginalPrefix; redeclared here so the package
// has no dependency on the sync engine.
const originalPrefix = "original/"

// ObjectStore is the slice of blob storage the generator needs.
type ObjectStore interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// RecordStore persists per-image catalog entries. *store.CatalogStore
// satisfies it.
type RecordStore interface {
	// GetEntry returns nil, nil when no record exists for the identifier.
	GetEntry(ctx context.Context, id string) (*catalog.Entry, error)
	PutEntry(ctx context.Context, entry catalog.Entry) error
}

// Generator produces the full Formats x Widths matrix for one original and
// upserts the resulting catalog entry. The entry's record stream feeds the
// catalog maintainer, which folds it into the aggregate document.
type Generator struct {
	Objects    ObjectStore
	Records    RecordStore
	Transcoder Transcoder
}

// IsOriginalKey reports whether an object key denotes a stored original.
// The generator's trigger must ignore everything else — in particular the
// aggregate document and the generator's own optimized/ writes, which would
// otherwise re-trigger it.
func IsOriginalKey(key string) bool {
	return strings.HasPrefix(key, originalPrefix) && key != originalPrefix
}

// ShouldGenerate reports whether an S3 event record warrants variant
// generation. The record must target the configured media bucket and a key
// under original/: the aggregate document and the generator's own optimized/
// writes fail the key check, and events from a trigger misconfigured onto
// another bucket fail the bucket check.
func ShouldGenerate(eventBucket, mediaBucket, key string) bool {
	return eventBucket == mediaBucket && IsOriginalKey(key)
}

// Identifier derives the catalog identifier from an original's object key by
// stripping the directory prefix and file extension.
func Identifier(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Generate renders every (format, width) pair for the original at key,
// stores each rendition, and upserts the catalog entry. The first transcode
// or store failure aborts the invocation so the trigger can redeliver;
// renditions are idempotent, so a retry simply overwrites.
func (g *Generator) Generate(ctx context.Context, key string) error {
	data, found, err := g.Objects.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch original %s: %w", key, err)
	}
	if !found {
		return fmt.Errorf("original %s not found", key)
	}

	img, err := g.Transcoder.Decode(data)
	if err != nil {
		return fmt.Errorf("original %s: %w", key, err)
	}

	id := Identifier(key)
	entry, err := g.Records.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("read catalog record %s: %w", id, err)
	}
	if entry == nil {
		entry = &catalog.Entry{ID: id, Description: ""}
	}

	for _, format := range Formats {
		variant := catalog.Variant{Format: format}
		for _, width := range Widths {
			log.Debug().Str("key", key).Str("format", string(format)).Int("width", width).Msg("Transcoding rendition")

			rendition, err := g.Transcoder.Transcode(img, width, format)
			if err != nil {
				return fmt.Errorf("render %s at %dpx for %s: %w", format, width, key, err)
			}

			renditionKey := fmt.Sprintf("%s%s_%d.%s", OptimizedPrefix, id, width, format)
			if err := g.Objects.Put(ctx, renditionKey, rendition, format.MIMEType()); err != nil {
				return fmt.Errorf("store rendition %s: %w", renditionKey, err)
			}

			variant.Sizes = append(variant.Sizes, catalog.Size{Size: width, Path: renditionKey})
		}
		entry.ReplaceVariant(variant)
	}

	if err := g.Records.PutEntry(ctx, *entry); err != nil {
		return fmt.Errorf("upsert catalog record %s: %w", id, err)
	}

	log.Info().
		Str("id", id).
		Int("formats", len(Formats)).
		Int("widths", len(Widths)).
		Msg("Variant matrix generated")
	return nil
}
