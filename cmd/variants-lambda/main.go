// Package main provides the Lambda entry point for variant generation.
//
// Triggered by S3 ObjectCreated events on the media bucket, it renders the
// fixed format x width matrix for each new original and upserts the image's
// catalog record into DynamoDB. The table's stream then triggers the catalog
// Lambda, which folds the record into images.json.
//
// Events for other buckets or for keys outside original/ (the aggregate
// document, optimized/ renditions) are ignored; processing the latter would
// re-trigger this Lambda forever.
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/instagram-image-sync/internal/lambdaboot"
	"github.com/fpang/instagram-image-sync/internal/logging"
	"github.com/fpang/instagram-image-sync/internal/metrics"
	"github.com/fpang/instagram-image-sync/internal/s3util"
	"github.com/fpang/instagram-image-sync/internal/store"
	"github.com/fpang/instagram-image-sync/internal/variants"
)

var coldStart = true

// Clients initialized at cold start.
var (
	mediaBucket  *s3util.Bucket
	catalogStore *store.CatalogStore
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	mediaBucket = lambdaboot.InitBucket(awsClients.Config, "MEDIA_BUCKET_NAME")
	catalogStore = lambdaboot.InitCatalogStore(awsClients.Config, "CATALOG_TABLE_NAME")

	lambdaboot.StartupLog("variants-lambda", initStart).
		S3Bucket("mediaBucket", mediaBucket.Name).
		DynamoTable("catalog", lambdaboot.RequireEnv("CATALOG_TABLE_NAME")).
		Log()
}

// Response is the acknowledgment payload returned on success.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func handler(ctx context.Context, s3Event events.S3Event) (Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "variants-lambda").Msg("Cold start — first invocation")
	}

	generator := &variants.Generator{
		Objects:    mediaBucket,
		Records:    catalogStore,
		Transcoder: variants.StdTranscoder{},
	}

	for _, record := range s3Event.Records {
		bucket, key := record.S3.Bucket.Name, record.S3.Object.Key
		if !variants.ShouldGenerate(bucket, mediaBucket.Name, key) {
			log.Debug().Str("bucket", bucket).Str("key", key).Msg("Skipping record outside the media bucket's original prefix")
			continue
		}

		log.Info().Str("bucket", bucket).Str("key", key).Msg("Processing new original")
		generateStart := time.Now()
		if err := generator.Generate(ctx, key); err != nil {
			// No per-rendition guarding: the error aborts the batch so the
			// trigger redelivers. Renditions are idempotent overwrites.
			log.Error().Err(err).Str("key", key).Msg("Variant generation failed")
			return Response{}, err
		}

		metrics.New(metrics.Namespace).
			Dimension("Operation", "variants").
			Metric("OriginalProcessDurationMs", float64(time.Since(generateStart).Milliseconds()), metrics.UnitMilliseconds).
			Metric("RenditionsGenerated", float64(len(variants.Formats)*len(variants.Widths)), metrics.UnitCount).
			Property("key", key).
			Flush()
	}

	body, _ := json.Marshal(map[string]string{"message": "Instagram images processed successfully!"})
	return Response{StatusCode: 200, Body: string(body)}, nil
}

func main() {
	lambda.Start(handler)
}
