package pipeline

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/nuxeo"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// fullHDView is the rendition substituted when the primary blob has an
// unsupported mime type. It is the highest-resolution derived view the
// repository generates.
const fullHDView = "FullHD"

// Resolver picks the best available image rendition of a document and maps
// it to its object store location.
type Resolver struct {
	docs  DocumentStore
	store storage.ObjectStore
	cfg   config.StorageConfig
}

// NewResolver creates a resolver reading documents from docs and binaries
// from store.
func NewResolver(docs DocumentStore, store storage.ObjectStore, cfg config.StorageConfig) *Resolver {
	return &Resolver{docs: docs, store: store, cfg: cfg}
}

// Resolve returns the image asset for a document. Fails with ErrNotFound when
// the document does not exist or has no attached image content. When the
// primary blob's mime type is not allowed, the FullHD rendition is
// substituted; without that rendition, resolution fails with
// ErrUnsupportedMedia. A primary blob with a disallowed mime type is never
// returned as a last resort for downstream decoding.
func (r *Resolver) Resolve(ctx context.Context, docUID string) (*ImageAsset, error) {
	doc, err := r.docs.GetDocument(ctx, docUID)
	if err != nil {
		if nuxeo.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, docUID)
		}
		return nil, fmt.Errorf("could not fetch document %s: %w", docUID, err)
	}

	blob := doc.Content()
	if blob == nil {
		return nil, fmt.Errorf("%w: document %s has no image content", ErrNotFound, docUID)
	}

	if !r.cfg.Allows(blob.MimeType) {
		view := doc.View(fullHDView)
		if view == nil {
			return nil, fmt.Errorf("%w: document %s has mime type %s and no %s rendition",
				ErrUnsupportedMedia, docUID, blob.MimeType, fullHDView)
		}
		blob = view
	}

	return &ImageAsset{
		DocUID:   docUID,
		Bucket:   r.cfg.Bucket,
		Key:      r.cfg.KeyPrefix + blob.Digest,
		MimeType: blob.MimeType,
		store:    r.store,
	}, nil
}
