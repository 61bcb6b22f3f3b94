package pipeline

import (
	"context"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/recognition"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// Result is the outcome of processing one document.
type Result struct {
	DocUID  string
	Outcome Outcome
	Matches []recognition.IdentityMatch
}

// IdentityIDs returns the accepted identity ids in arrival order.
func (r *Result) IdentityIDs() []string {
	ids := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		ids = append(ids, m.ID)
	}
	return ids
}

// Pipeline wires resolver, extractor, matcher and writer into the full
// processing chain. The same chain serves the interactive path and the batch
// consumer.
type Pipeline struct {
	resolver  *Resolver
	extractor *Extractor
	matcher   *Matcher
	writer    *Writer
}

// New creates a pipeline from the injected collaborators.
func New(docs DocumentStore, store storage.ObjectStore, detector recognition.FaceDetector, index recognition.IdentityIndex, cfg *config.Config) *Pipeline {
	return &Pipeline{
		resolver:  NewResolver(docs, store, cfg.Storage),
		extractor: NewExtractor(detector),
		matcher:   NewMatcher(index, cfg.Worker.FaceConcurrency),
		writer:    NewWriter(docs),
	}
}

// Process runs resolve → detect → match → write for one document. Zero faces
// and zero accepted matches both write an empty identity set (replacing any
// previous value) and report their outcome; only resolver, decode, detection
// and persistence failures surface as errors.
func (p *Pipeline) Process(ctx context.Context, docUID string) (*Result, error) {
	asset, err := p.resolver.Resolve(ctx, docUID)
	if err != nil {
		return nil, err
	}

	img, regions, err := p.extractor.Detect(ctx, asset)
	if err != nil {
		return nil, err
	}

	result := &Result{DocUID: docUID}
	if len(regions) == 0 {
		result.Outcome = OutcomeNoFace
		if err := p.writer.SaveMatches(ctx, docUID, nil); err != nil {
			return nil, err
		}
		return result, nil
	}

	crops := make([][]byte, len(regions))
	for i, region := range regions {
		crops[i] = p.extractor.CropFace(img, region, asset.MimeType)
	}

	result.Matches = p.matcher.MatchFaces(ctx, crops)
	if err := p.writer.SaveMatches(ctx, docUID, result.IdentityIDs()); err != nil {
		return nil, err
	}

	if len(result.Matches) > 0 {
		result.Outcome = OutcomeDetected
	} else {
		result.Outcome = OutcomeNotDetected
	}
	return result, nil
}
