package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// rekognitionAPI is the slice of the Rekognition client face-tagger uses.
type rekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	SearchUsersByImage(ctx context.Context, params *rekognition.SearchUsersByImageInput, optFns ...func(*rekognition.Options)) (*rekognition.SearchUsersByImageOutput, error)
	StartProjectVersion(ctx context.Context, params *rekognition.StartProjectVersionInput, optFns ...func(*rekognition.Options)) (*rekognition.StartProjectVersionOutput, error)
	StopProjectVersion(ctx context.Context, params *rekognition.StopProjectVersionInput, optFns ...func(*rekognition.Options)) (*rekognition.StopProjectVersionOutput, error)
	DescribeProjectVersions(ctx context.Context, params *rekognition.DescribeProjectVersionsInput, optFns ...func(*rekognition.Options)) (*rekognition.DescribeProjectVersionsOutput, error)
}

// Rekognition implements FaceDetector, IdentityIndex and ModelAdmin on top of
// the AWS Rekognition client.
type Rekognition struct {
	client       rekognitionAPI
	collectionID string
	threshold    float64
	callTimeout  time.Duration
}

// NewRekognition creates the Rekognition-backed recognition capabilities.
// Identity searches run against collectionID with the given acceptance
// threshold (percent).
func NewRekognition(client *rekognition.Client, collectionID string, threshold float64) *Rekognition {
	return &Rekognition{
		client:       client,
		collectionID: collectionID,
		threshold:    threshold,
		callTimeout:  30 * time.Second,
	}
}

// DetectFaces requests full attribute detail and returns the bounding box of
// every detected face.
func (r *Rekognition) DetectFaces(ctx context.Context, image []byte) ([]FaceRegion, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	out, err := r.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	regions := make([]FaceRegion, 0, len(out.FaceDetails))
	for _, detail := range out.FaceDetails {
		box := detail.BoundingBox
		if box == nil {
			continue
		}
		regions = append(regions, FaceRegion{
			Left:   float64(aws.ToFloat32(box.Left)),
			Top:    float64(aws.ToFloat32(box.Top)),
			Width:  float64(aws.ToFloat32(box.Width)),
			Height: float64(aws.ToFloat32(box.Height)),
		})
	}
	return regions, nil
}

// SearchIdentity asks for the single best user match above the threshold.
func (r *Rekognition) SearchIdentity(ctx context.Context, faceCrop []byte) (*IdentityMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	out, err := r.client.SearchUsersByImage(ctx, &rekognition.SearchUsersByImageInput{
		CollectionId:       aws.String(r.collectionID),
		Image:              &types.Image{Bytes: faceCrop},
		MaxUsers:           aws.Int32(1),
		UserMatchThreshold: aws.Float32(float32(r.threshold)),
	})
	if err != nil {
		return nil, fmt.Errorf("search users by image: %w", err)
	}

	if len(out.UserMatches) == 0 {
		return nil, nil
	}
	match := out.UserMatches[0]
	if match.User == nil || match.User.UserId == nil {
		return nil, nil
	}
	return &IdentityMatch{
		ID:         aws.ToString(match.User.UserId),
		Confidence: float64(aws.ToFloat32(match.Similarity)),
	}, nil
}

func (r *Rekognition) StartModel(ctx context.Context, versionArn string) error {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	_, err := r.client.StartProjectVersion(ctx, &rekognition.StartProjectVersionInput{
		ProjectVersionArn: aws.String(versionArn),
		MinInferenceUnits: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("start project version: %w", err)
	}
	return nil
}

func (r *Rekognition) StopModel(ctx context.Context, versionArn string) error {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	_, err := r.client.StopProjectVersion(ctx, &rekognition.StopProjectVersionInput{
		ProjectVersionArn: aws.String(versionArn),
	})
	if err != nil {
		return fmt.Errorf("stop project version: %w", err)
	}
	return nil
}

func (r *Rekognition) ModelStatus(ctx context.Context, projectArn, versionName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	out, err := r.client.DescribeProjectVersions(ctx, &rekognition.DescribeProjectVersionsInput{
		ProjectArn:   aws.String(projectArn),
		VersionNames: []string{versionName},
	})
	if err != nil {
		return "", fmt.Errorf("describe project versions: %w", err)
	}
	if len(out.ProjectVersionDescriptions) == 0 {
		return "", fmt.Errorf("project version %s not found", versionName)
	}
	return string(out.ProjectVersionDescriptions[0].Status), nil
}
