// Package main provides the Lambda entry point for catalog maintenance.
//
// Triggered by the DynamoDB stream of the catalog table, it folds each newly
// inserted image record into the aggregate images.json document in S3.
// Records that are not insertions are skipped: updates and deletes are not
// folded, and redelivered inserts are safe to reapply.
//
// Errors are logged and swallowed — this handler never returns an error to
// the runtime, so a bad record cannot wedge the stream shard.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/instagram-image-sync/internal/catalog"
	"github.com/fpang/instagram-image-sync/internal/lambdaboot"
	"github.com/fpang/instagram-image-sync/internal/logging"
	"github.com/fpang/instagram-image-sync/internal/store"
)

var coldStart = true

// Clients initialized at cold start.
var documentStore *catalog.DocumentStore

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	bucket := lambdaboot.InitBucket(awsClients.Config, "MEDIA_BUCKET_NAME")
	documentStore = &catalog.DocumentStore{
		Objects: bucket,
		Key:     lambdaboot.RequireEnv("CATALOG_KEY"),
	}

	lambdaboot.StartupLog("catalog-lambda", initStart).
		S3Bucket("mediaBucket", bucket.Name).
		Config("catalogKey", documentStore.Key).
		Log()
}

func handler(ctx context.Context, event events.DynamoDBEvent) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "catalog-lambda").Msg("Cold start — first invocation")
	}

	for _, record := range event.Records {
		if record.EventName != string(events.DynamoDBOperationTypeInsert) {
			continue
		}

		newImage := record.Change.NewImage
		if len(newImage) == 0 {
			log.Error().Str("eventId", record.EventID).Msg("Insert record carries no NewImage")
			continue
		}

		var entry catalog.Entry
		if err := store.UnmarshalStreamImage(newImage, &entry); err != nil {
			log.Error().Err(err).Str("eventId", record.EventID).Msg("Failed to decode inserted record")
			continue
		}

		if err := applyInsert(ctx, entry); err != nil {
			log.Error().Err(err).Str("id", entry.ID).Msg("Failed to fold record into catalog")
			continue
		}
		log.Info().Str("id", entry.ID).Msg("Catalog record folded into aggregate document")
	}
}

// applyInsert performs the read-modify-write of the aggregate document.
// Last-writer-wins: overlapping invocations can lose each other's fold, but
// every record stays durable in DynamoDB and is restored on its next insert.
func applyInsert(ctx context.Context, entry catalog.Entry) error {
	doc, err := documentStore.Load(ctx)
	if err != nil {
		return err
	}
	doc.Upsert(entry)
	return documentStore.Save(ctx, doc)
}

func main() {
	lambda.Start(handler)
}
