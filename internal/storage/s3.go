package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the slice of the S3 client face-tagger uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
	PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
}

// S3Store implements ObjectStore on top of the AWS S3 client.
type S3Store struct {
	client      s3API
	callTimeout time.Duration
}

// NewS3Store creates an object store backed by the given S3 client.
func NewS3Store(client *s3.Client) *S3Store {
	return &S3Store{client: client, callTimeout: 30 * time.Second}
}

func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("could not get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		pageCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		page, err := paginator.NextPage(pageCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("could not list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3Store) GetTag(ctx context.Context, bucket, key, tag string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	out, err := s.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("could not read tags of s3://%s/%s: %w", bucket, key, err)
	}
	for _, t := range out.TagSet {
		if aws.ToString(t.Key) == tag {
			return aws.ToString(t.Value), nil
		}
	}
	return "", nil
}

// SetTag replaces the value of one tag while preserving the rest of the tag
// set. PutObjectTagging overwrites the whole set, so the current set is read
// first.
func (s *S3Store) SetTag(ctx context.Context, bucket, key, tag, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	current, err := s.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("could not read tags of s3://%s/%s: %w", bucket, key, err)
	}

	tagSet := make([]types.Tag, 0, len(current.TagSet)+1)
	for _, t := range current.TagSet {
		if aws.ToString(t.Key) != tag {
			tagSet = append(tagSet, t)
		}
	}
	tagSet = append(tagSet, types.Tag{Key: aws.String(tag), Value: aws.String(value)})

	_, err = s.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket:  aws.String(bucket),
		Key:     aws.String(key),
		Tagging: &types.Tagging{TagSet: tagSet},
	})
	if err != nil {
		return fmt.Errorf("could not tag s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
