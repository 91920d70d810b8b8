// Package sync implements the media synchronization pass: diffing the
// Instagram account's tagged media against the originals already stored in
// S3, downloading what is new and deleting what no longer matches.
package sync

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fpang/instagram-image-sync/internal/instagram"
)

// OriginalPrefix is the key prefix for unmodified downloaded media.
const OriginalPrefix = "original/"

// MediaSource lists an account's media and resolves carousel children.
// *instagram.Client satisfies it.
type MediaSource interface {
	ListMedia(ctx context.Context) ([]instagram.Media, error)
	ChildMediaURL(ctx context.Context, childID string) (string, error)
}

// Downloader fetches media bytes from a CDN URL, returning the data and the
// format derived from the response content type.
type Downloader interface {
	Download(ctx context.Context, mediaURL string) (data []byte, format string, err error)
}

// ObjectStore is the slice of blob storage the engine needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Engine performs one synchronization pass. A pass is idempotent: with an
// unchanged remote listing it downloads and deletes nothing.
type Engine struct {
	Source     MediaSource
	Downloader Downloader
	Store      ObjectStore

	// Tags are the caption substrings that select media for sync.
	// Matching is case-insensitive.
	Tags []string
}

// downloadItem is one queued fetch: the CDN URL and the extension-less
// destination key. Album children share the parent's key, so later children
// overwrite earlier ones.
type downloadItem struct {
	url     string
	baseKey string
}

// Summary reports what one synchronization pass changed.
type Summary struct {
	Downloaded int
	Deleted    int
}

// Run executes one synchronization pass. Individual download and delete
// failures are logged and skipped; only a failed media listing aborts.
// Log events go through the context's logger, so callers can scope a pass
// with a run identifier.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	logger := zerolog.Ctx(ctx)

	existing := e.listExisting(ctx)

	media, err := e.Source.ListMedia(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch media listing: %w", err)
	}

	queue := e.buildQueue(ctx, media)
	logger.Info().
		Int("remoteItems", len(media)).
		Int("queued", len(queue)).
		Int("existing", len(existing)).
		Msg("Sync pass planned")

	// Diff first, then process: duplicate base keys in the queue (album
	// children) all download, so the last child's bytes win.
	var toDownload []downloadItem
	for _, item := range queue {
		if _, ok := existing[item.baseKey]; !ok {
			toDownload = append(toDownload, item)
		}
	}

	var summary Summary
	for _, item := range toDownload {
		data, format, err := e.Downloader.Download(ctx, item.url)
		if err != nil {
			logger.Error().Err(err).Str("key", item.baseKey).Msg("Failed to download media, skipping")
			continue
		}
		key := item.baseKey + "." + format
		if err := e.Store.Put(ctx, key, data, "image/"+format); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to store original, skipping")
			continue
		}
		existing[item.baseKey] = key
		summary.Downloaded++
		logger.Info().Str("key", key).Int("bytes", len(data)).Msg("Original stored")
	}

	wanted := make(map[string]bool, len(queue))
	for _, item := range queue {
		wanted[item.baseKey] = true
	}

	for baseKey, fullKey := range existing {
		if wanted[baseKey] {
			continue
		}
		if err := e.Store.Delete(ctx, fullKey); err != nil {
			logger.Error().Err(err).Str("key", fullKey).Msg("Failed to delete original, skipping")
			continue
		}
		summary.Deleted++
		logger.Info().Str("key", fullKey).Msg("Original deleted: no longer matches any tag")
	}

	logger.Info().Int("downloaded", summary.Downloaded).Int("deleted", summary.Deleted).Msg("Sync pass complete")
	return summary, nil
}

// listExisting maps extension-stripped base keys to the full stored keys
// under OriginalPrefix. A listing failure is logged and treated as an empty
// set: the pass then re-downloads rather than hard-failing.
func (e *Engine) listExisting(ctx context.Context) map[string]string {
	existing := make(map[string]string)

	keys, err := e.Store.List(ctx, OriginalPrefix)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to list existing originals, treating as empty")
		return existing
	}
	for _, key := range keys {
		existing[stripExtension(key)] = key
	}
	return existing
}

// buildQueue turns the remote listing into download items. An item is queued
// once per matching tag, under a tag-specific key. Albums are expanded into
// one item per child, each resolved with a follow-up fetch; a child whose
// resolution fails is logged and skipped.
func (e *Engine) buildQueue(ctx context.Context, media []instagram.Media) []downloadItem {
	logger := zerolog.Ctx(ctx)
	var queue []downloadItem

	for _, item := range media {
		if item.Caption == "" {
			continue
		}
		caption := strings.ToLower(item.Caption)

		for _, tag := range e.Tags {
			if !strings.Contains(caption, strings.ToLower(tag)) {
				continue
			}
			baseKey := fmt.Sprintf("%s%s_%s", OriginalPrefix, tag, item.ID)

			if item.IsAlbum() {
				for _, child := range item.Children.Data {
					childURL, err := e.Source.ChildMediaURL(ctx, child.ID)
					if err != nil {
						logger.Error().Err(err).Str("childId", child.ID).Str("mediaId", item.ID).
							Msg("Failed to resolve album child, skipping")
						continue
					}
					queue = append(queue, downloadItem{url: childURL, baseKey: baseKey})
				}
			} else {
				queue = append(queue, downloadItem{url: item.MediaURL, baseKey: baseKey})
			}
		}
	}
	return queue
}

// stripExtension removes a trailing file extension from an object key.
func stripExtension(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}
