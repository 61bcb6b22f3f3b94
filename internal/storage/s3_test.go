package storage

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3API holds one object with a mutable tag set.
type fakeS3API struct {
	content []byte
	tagSet  []types.Tag

	putInput *s3.PutObjectTaggingInput
}

func (f *fakeS3API) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.content))}, nil
}

func (f *fakeS3API) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("binaries/d1")},
			{Key: aws.String("binaries/d2")},
		},
	}, nil
}

func (f *fakeS3API) GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error) {
	return &s3.GetObjectTaggingOutput{TagSet: f.tagSet}, nil
}

func (f *fakeS3API) PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	f.putInput = params
	f.tagSet = params.Tagging.TagSet
	return &s3.PutObjectTaggingOutput{}, nil
}

func newTestStore(api *fakeS3API) *S3Store {
	return &S3Store{client: api, callTimeout: 30 * time.Second}
}

func TestGetObject(t *testing.T) {
	api := &fakeS3API{content: []byte("image-bytes")}
	store := newTestStore(api)

	data, err := store.Get(context.Background(), "photo-bucket", "binaries/d1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestListKeys(t *testing.T) {
	store := newTestStore(&fakeS3API{})

	keys, err := store.List(context.Background(), "photo-bucket", "binaries/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "binaries/d1" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestGetTag(t *testing.T) {
	api := &fakeS3API{tagSet: []types.Tag{
		{Key: aws.String("owner"), Value: aws.String("family-albums")},
		{Key: aws.String(StateTag), Value: aws.String(StatePending)},
	}}
	store := newTestStore(api)

	state, err := store.GetTag(context.Background(), "photo-bucket", "binaries/d1", StateTag)
	if err != nil {
		t.Fatalf("GetTag failed: %v", err)
	}
	if state != StatePending {
		t.Errorf("expected pending, got %q", state)
	}

	missing, err := store.GetTag(context.Background(), "photo-bucket", "binaries/d1", "nope")
	if err != nil {
		t.Fatalf("GetTag failed: %v", err)
	}
	if missing != "" {
		t.Errorf("expected empty value for absent tag, got %q", missing)
	}
}

func TestSetTagPreservesOtherTags(t *testing.T) {
	api := &fakeS3API{tagSet: []types.Tag{
		{Key: aws.String("owner"), Value: aws.String("family-albums")},
		{Key: aws.String(StateTag), Value: aws.String(StatePending)},
	}}
	store := newTestStore(api)

	err := store.SetTag(context.Background(), "photo-bucket", "binaries/d1", StateTag, StateProcessed)
	if err != nil {
		t.Fatalf("SetTag failed: %v", err)
	}

	if api.putInput == nil {
		t.Fatal("expected a PutObjectTagging call")
	}

	var owner, state string
	for _, tag := range api.tagSet {
		switch aws.ToString(tag.Key) {
		case "owner":
			owner = aws.ToString(tag.Value)
		case StateTag:
			state = aws.ToString(tag.Value)
		}
	}
	if owner != "family-albums" {
		t.Errorf("expected unrelated tag preserved, got %q", owner)
	}
	if state != StateProcessed {
		t.Errorf("expected state processed, got %q", state)
	}
	if len(api.tagSet) != 2 {
		t.Errorf("expected 2 tags, got %d", len(api.tagSet))
	}
}
