// Package main provides a local CLI counterpart to the pipeline Lambdas,
// useful for running a sync pass from a workstation and inspecting the
// aggregate catalog without waiting for the schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/instagram-image-sync/internal/catalog"
	"github.com/fpang/instagram-image-sync/internal/instagram"
	"github.com/fpang/instagram-image-sync/internal/logging"
	"github.com/fpang/instagram-image-sync/internal/s3util"
	"github.com/fpang/instagram-image-sync/internal/sync"
)

// CLI flags
var (
	bucketFlag     string
	tagsFlag       string
	catalogKeyFlag string
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "instagram-sync",
	Short: "Synchronize tagged Instagram media into the content bucket",
	Long: `instagram-sync runs the media pipeline's synchronization pass locally and
inspects its output.

The run command diffs the account's tagged media against the originals stored
in S3, downloading new matches and deleting originals whose captions no longer
carry a configured tag. The catalog command prints the aggregate images.json
document.

Credentials come from the environment: INSTAGRAM_ACCESS_TOKEN for the Graph
API and the default AWS credential chain for S3.

Examples:
  instagram-sync run --bucket darley-construcoes-instagram-images --tags industrial,comercial,residencial
  instagram-sync catalog --bucket darley-construcoes-instagram-images --key images.json`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one synchronization pass",
	RunE:  runSync,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the aggregate catalog document",
	RunE:  runCatalog,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&bucketFlag, "bucket", "b", os.Getenv("MEDIA_BUCKET_NAME"), "Media bucket name (default: MEDIA_BUCKET_NAME)")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", os.Getenv("SYNC_TAGS"), "Comma-separated caption tags (default: SYNC_TAGS)")
	catalogCmd.Flags().StringVarP(&catalogKeyFlag, "key", "k", envOrDefault("CATALOG_KEY", "images.json"), "Aggregate document key")
	rootCmd.AddCommand(runCmd, catalogCmd)
}

func main() {
	logging.Init()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	bucket, err := openBucket(cmd.Context())
	if err != nil {
		return err
	}

	token := os.Getenv("INSTAGRAM_ACCESS_TOKEN")
	if token == "" {
		return fmt.Errorf("INSTAGRAM_ACCESS_TOKEN is required")
	}

	var tags []string
	for _, tag := range strings.Split(tagsFlag, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return fmt.Errorf("at least one tag is required (--tags or SYNC_TAGS)")
	}

	client := instagram.NewClient(token)
	engine := &sync.Engine{
		Source:     client,
		Downloader: client,
		Store:      bucket,
		Tags:       tags,
	}

	log.Info().Str("bucket", bucket.Name).Strs("tags", tags).Msg("Starting local sync pass")
	summary, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %d, deleted %d\n", summary.Downloaded, summary.Deleted)
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	bucket, err := openBucket(cmd.Context())
	if err != nil {
		return err
	}

	docStore := &catalog.DocumentStore{Objects: bucket, Key: catalogKeyFlag}
	doc, err := docStore.Load(cmd.Context())
	if err != nil {
		return err
	}

	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func openBucket(ctx context.Context) (*s3util.Bucket, error) {
	if bucketFlag == "" {
		return nil, fmt.Errorf("bucket name is required (--bucket or MEDIA_BUCKET_NAME)")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &s3util.Bucket{Client: s3.NewFromConfig(cfg), Name: bucketFlag}, nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
