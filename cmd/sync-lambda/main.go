// Package main provides the Lambda entry point for the scheduled Instagram
// synchronization pass.
//
// Triggered by an EventBridge schedule (or a manual invoke), it diffs the
// account's tagged media against the originals stored under original/ in the
// media bucket, downloads new matches, and deletes originals whose captions
// no longer carry a configured tag. Each stored original's ObjectCreated
// event then triggers the variants Lambda.
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/instagram-image-sync/internal/instagram"
	"github.com/fpang/instagram-image-sync/internal/lambdaboot"
	"github.com/fpang/instagram-image-sync/internal/logging"
	"github.com/fpang/instagram-image-sync/internal/metrics"
	"github.com/fpang/instagram-image-sync/internal/s3util"
	"github.com/fpang/instagram-image-sync/internal/sync"
)

var coldStart = true

// Clients initialized at cold start.
var (
	mediaBucket *s3util.Bucket
	igClient    *instagram.Client
	syncTags    []string
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	mediaBucket = lambdaboot.InitBucket(awsClients.Config, "MEDIA_BUCKET_NAME")
	syncTags = lambdaboot.ParseTags(lambdaboot.RequireEnv("SYNC_TAGS"))
	igClient = instagram.NewClient(lambdaboot.LoadInstagramToken(awsClients.SSM))

	lambdaboot.StartupLog("sync-lambda", initStart).
		S3Bucket("mediaBucket", mediaBucket.Name).
		Config("tags", lambdaboot.RequireEnv("SYNC_TAGS")).
		Log()
}

// Response is the acknowledgment payload returned on success.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func ackResponse(message string) Response {
	body, _ := json.Marshal(map[string]string{"message": message})
	return Response{StatusCode: 200, Body: string(body)}
}

func handler(ctx context.Context) (Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "sync-lambda").Msg("Cold start — first invocation")
	}

	runID := uuid.NewString()
	runLogger := log.With().Str("runId", runID).Logger()
	// The engine logs through the context, so every event of this pass
	// carries the run ID.
	ctx = runLogger.WithContext(ctx)
	runLogger.Info().Strs("tags", syncTags).Msg("Starting sync pass")

	engine := &sync.Engine{
		Source:     igClient,
		Downloader: igClient,
		Store:      mediaBucket,
		Tags:       syncTags,
	}

	runStart := time.Now()
	summary, err := engine.Run(ctx)
	if err != nil {
		runLogger.Error().Err(err).Msg("Sync pass failed")
		return Response{}, err
	}

	metrics.New(metrics.Namespace).
		Dimension("Operation", "sync").
		Metric("SyncDurationMs", float64(time.Since(runStart).Milliseconds()), metrics.UnitMilliseconds).
		Metric("OriginalsDownloaded", float64(summary.Downloaded), metrics.UnitCount).
		Metric("OriginalsDeleted", float64(summary.Deleted), metrics.UnitCount).
		Count("SyncSuccess").
		Property("runId", runID).
		Flush()

	return ackResponse("Instagram images processed successfully!"), nil
}

func main() {
	lambda.Start(handler)
}
