// Package lambdaboot provides shared Lambda cold-start bootstrap logic.
//
// Every Lambda in the pipeline needs some subset of: AWS config, S3,
// DynamoDB, SSM parameter fetch, and startup logging. This package extracts
// the common init patterns so each Lambda's init() is a short composition of
// helpers.
package lambdaboot

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/instagram-image-sync/internal/logging"
	"github.com/fpang/instagram-image-sync/internal/s3util"
	"github.com/fpang/instagram-image-sync/internal/store"
)

// defaultTokenParam is the SSM parameter holding the long-lived Instagram
// access token when INSTAGRAM_ACCESS_TOKEN is not set directly.
const defaultTokenParam = "/instagram-image-sync/prod/access-token"

// AWSClients holds the core AWS SDK clients used across Lambdas.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitBucket creates a bucket handle from the given environment variable.
// Fatals if the env var is empty.
func InitBucket(cfg aws.Config, bucketEnvVar string) *s3util.Bucket {
	name := os.Getenv(bucketEnvVar)
	if name == "" {
		log.Fatal().Str("envVar", bucketEnvVar).Msg("Bucket environment variable is required")
	}
	return &s3util.Bucket{
		Client: s3.NewFromConfig(cfg),
		Name:   name,
	}
}

// InitCatalogStore creates the DynamoDB catalog record store from the given
// table name environment variable. Fatals if the env var is empty.
func InitCatalogStore(cfg aws.Config, tableEnvVar string) *store.CatalogStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Fatal().Str("envVar", tableEnvVar).Msg("DynamoDB table environment variable is required")
	}
	return store.NewCatalogStore(dynamodb.NewFromConfig(cfg), tableName)
}

// RequireEnv reads a required environment variable. Fatals if empty.
func RequireEnv(name string) string {
	value := os.Getenv(name)
	if value == "" {
		log.Fatal().Str("envVar", name).Msg("Environment variable is required")
	}
	return value
}

// ParseTags splits the comma-separated SYNC_TAGS value into a cleaned tag
// list. Fatals if no usable tag remains: a sync pass without tags would
// delete every stored original.
func ParseTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		log.Fatal().Str("raw", raw).Msg("SYNC_TAGS must contain at least one tag")
	}
	return tags
}

// LoadInstagramToken returns the Instagram access token from the
// INSTAGRAM_ACCESS_TOKEN env var, falling back to SSM Parameter Store.
// Fatals on failure: the sync Lambda cannot run without a credential.
func LoadInstagramToken(ssmClient *ssm.Client) string {
	if token := os.Getenv("INSTAGRAM_ACCESS_TOKEN"); token != "" {
		return token
	}

	paramName := os.Getenv("SSM_INSTAGRAM_TOKEN_PARAM")
	if paramName == "" {
		paramName = defaultTokenParam
	}

	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read Instagram access token from SSM")
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Instagram access token loaded from SSM")
	return *result.Parameter.Value
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
