// Package recognition defines the face recognition capabilities face-tagger
// consumes and their AWS Rekognition implementation. Components depend on the
// narrow interfaces so tests can substitute in-process fakes.
package recognition

import (
	"context"
	"fmt"
	"strings"
)

// FaceRegion is the bounding box of one detected face. Coordinates are
// fractions in [0,1] of the image dimensions.
type FaceRegion struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// IdentityMatch is the accepted top candidate for one face crop.
type IdentityMatch struct {
	ID         string
	Confidence float64
}

// FaceDetector detects face regions in an encoded image.
type FaceDetector interface {
	// DetectFaces returns zero or more face regions. Zero faces is a valid
	// result, not an error.
	DetectFaces(ctx context.Context, image []byte) ([]FaceRegion, error)
}

// IdentityIndex searches a face crop against the identity collection.
type IdentityIndex interface {
	// SearchIdentity returns the top candidate above the configured
	// acceptance threshold, or nil when nothing qualifies. The threshold is
	// enforced by the remote service; callers must not relax it.
	SearchIdentity(ctx context.Context, faceCrop []byte) (*IdentityMatch, error)
}

// ModelAdmin controls the billable recognition model.
type ModelAdmin interface {
	StartModel(ctx context.Context, versionArn string) error
	StopModel(ctx context.Context, versionArn string) error
	// ModelStatus reports the service-side status of the model version
	// (e.g. STARTING, RUNNING, STOPPED, FAILED).
	ModelStatus(ctx context.Context, projectArn, versionName string) (string, error)
}

// VersionName extracts the model version name from a project version ARN.
// ARN layout: arn:aws:rekognition:region:account:project/name/version/<version>/ts.
func VersionName(versionArn string) (string, error) {
	parts := strings.Split(versionArn, "/")
	if len(parts) < 4 {
		return "", fmt.Errorf("unexpected project version ARN %q", versionArn)
	}
	return parts[3], nil
}
