// Package pipeline implements the resolve → detect → match → write chain
// that turns one picture document into a set of recognized identities.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-tagger/internal/nuxeo"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// Failure classes. Permanent classes (NotFound, UnsupportedMedia, Decode)
// make retries pointless; Recognition and Persistence are transient and the
// batch layer leaves those items for queue redelivery.
var (
	ErrNotFound         = errors.New("document or image not found")
	ErrUnsupportedMedia = errors.New("no decodable rendition")
	ErrDecode           = errors.New("could not decode image")
	ErrRecognition      = errors.New("recognition service failed")
	ErrPersistence      = errors.New("could not persist matches")
)

// IsPermanent reports whether the error class cannot be fixed by retrying.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupportedMedia) || errors.Is(err, ErrDecode)
}

// DocumentStore is the capability the pipeline needs from the document
// repository. *nuxeo.Client satisfies it.
type DocumentStore interface {
	GetDocument(ctx context.Context, uid string) (*nuxeo.Document, error)
	SetProperty(ctx context.Context, uid, xpath, value string) error
}

// ImageAsset is the resolved image rendition of one document. Content is
// fetched lazily from the object store and cached for the lifetime of the
// asset.
type ImageAsset struct {
	DocUID   string
	Bucket   string
	Key      string
	MimeType string

	store storage.ObjectStore
	data  []byte
}

// Bytes returns the image content, fetching it on first use.
func (a *ImageAsset) Bytes(ctx context.Context) ([]byte, error) {
	if a.data != nil {
		return a.data, nil
	}
	data, err := a.store.Get(ctx, a.Bucket, a.Key)
	if err != nil {
		return nil, fmt.Errorf("could not fetch image content: %w", err)
	}
	a.data = data
	return a.data, nil
}

// Outcome is the user-visible result of processing one document. Zero
// detected faces is a normal outcome, not an error.
type Outcome string

const (
	OutcomeNoFace      Outcome = "no_face"
	OutcomeNotDetected Outcome = "not_detected"
	OutcomeDetected    Outcome = "detected"
)
