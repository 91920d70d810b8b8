// Package s3util wraps the S3 operations the pipeline needs — list, get,
// put, delete — behind a single Bucket type so the sync engine, variant
// generator, and catalog maintainer can share one implementation.
package s3util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// Bucket is an S3 bucket handle.
type Bucket struct {
	Client *s3.Client
	Name   string
}

// List returns all object keys under the given prefix.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(b.Client, &s3.ListObjectsV2Input{
		Bucket: &b.Name,
		Prefix: &prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("S3 ListObjectsV2 %s/%s: %w", b.Name, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	log.Debug().Str("bucket", b.Name).Str("prefix", prefix).Int("count", len(keys)).Msg("S3 listing complete")
	return keys, nil
}

// Get reads an object into memory. A missing key returns found=false rather
// than an error.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := b.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.Name,
		Key:    &key,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("S3 GetObject %s/%s: %w", b.Name, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read S3 object %s/%s: %w", b.Name, key, err)
	}
	return data, true, nil
}

// Put writes an object with the given content type.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &b.Name,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", b.Name, key, err)
	}
	log.Debug().Str("bucket", b.Name).Str("key", key).Int("bytes", len(data)).Msg("S3 object uploaded")
	return nil
}

// Delete removes an object. Deleting a missing key is not an error in S3.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.Name,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("S3 DeleteObject %s/%s: %w", b.Name, key, err)
	}
	return nil
}
