// Package store persists per-image catalog records in DynamoDB. Each record
// is one catalog.Entry keyed by the image identifier; the table's stream
// feeds the catalog maintainer, which folds inserts into the aggregate
// images.json document.
//
// Keeping the records in DynamoDB instead of mutating the aggregate document
// directly means each entry's upsert is independently persisted: overlapping
// variant generator invocations cannot lose each other's records, only the
// best-effort aggregate fold remains last-writer-wins.
package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fpang/instagram-image-sync/internal/catalog"
)

// CatalogStore reads and writes catalog entries in one DynamoDB table.
// The table uses the image identifier as its partition key ("id").
type CatalogStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewCatalogStore creates a CatalogStore for the given table.
// The client should be initialized from the shared AWS config.
func NewCatalogStore(client *dynamodb.Client, tableName string) *CatalogStore {
	return &CatalogStore{
		client:    client,
		tableName: tableName,
	}
}

// PutEntry creates or fully replaces the record for entry.ID.
func (s *CatalogStore) PutEntry(ctx context.Context, entry catalog.Entry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", entry.ID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem id=%s: %w", entry.ID, err)
	}
	return nil
}

// GetEntry retrieves the record for an identifier. Returns nil, nil if no
// record exists.
func (s *CatalogStore) GetEntry(ctx context.Context, id string) (*catalog.Entry, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem id=%s: %w", id, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var entry catalog.Entry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry %s: %w", id, err)
	}
	return &entry, nil
}
