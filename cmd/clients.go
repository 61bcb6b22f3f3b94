package cmd

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/nuxeo"
	"github.com/kozaktomas/face-tagger/internal/pipeline"
	"github.com/kozaktomas/face-tagger/internal/queue"
	"github.com/kozaktomas/face-tagger/internal/recognition"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// clients bundles the external service connections shared by the commands.
type clients struct {
	nuxeo       *nuxeo.Client
	store       *storage.S3Store
	queue       *queue.SQSQueue
	recognition *recognition.Rekognition
}

// connect validates the configuration and builds clients for all external
// services. Commands that only need a subset still go through here; the
// AWS config load is cheap and the Nuxeo client does not dial until used.
func connect(ctx context.Context, cfg *config.Config) (*clients, error) {
	if cfg.Nuxeo.URL == "" {
		return nil, errors.New("NUXEO_URL environment variable is required")
	}
	if cfg.Storage.Bucket == "" {
		return nil, errors.New("FACETAG_BUCKET environment variable is required")
	}

	nx, err := nuxeo.NewClient(cfg.Nuxeo.URL, cfg.Nuxeo.Username, cfg.Nuxeo.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create Nuxeo client: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &clients{
		nuxeo: nx,
		store: storage.NewS3Store(s3.NewFromConfig(awsCfg)),
		queue: queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.Queue.URL),
		recognition: recognition.NewRekognition(
			rekognition.NewFromConfig(awsCfg),
			cfg.Recognition.CollectionID,
			cfg.Recognition.MatchThreshold,
		),
	}, nil
}

// newPipeline wires the tagging pipeline from a connected client set.
func (c *clients) newPipeline(cfg *config.Config) *pipeline.Pipeline {
	return pipeline.New(c.nuxeo, c.store, c.recognition, c.recognition, cfg)
}

// newModelRunner builds the lifecycle controller for the recognition model.
func (c *clients) newModelRunner(cfg *config.Config) (*recognition.ModelRunner, error) {
	if cfg.Recognition.ProjectVersionArn == "" {
		return nil, errors.New("FACETAG_MODEL_PROJECT_VERSION_ARN environment variable is required")
	}
	return recognition.NewModelRunner(
		c.recognition,
		cfg.Recognition.ProjectArn,
		cfg.Recognition.ProjectVersionArn,
		cfg.Recognition.StartTimeout,
		cfg.Recognition.PollInterval,
	), nil
}
