package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kozaktomas/face-tagger/internal/recognition"
)

// Matcher runs identity searches for the faces of one image with bounded
// parallelism and collects the accepted matches.
type Matcher struct {
	index       recognition.IdentityIndex
	concurrency int
}

// NewMatcher creates a matcher. concurrency bounds the parallel searches per
// image; values below 1 are treated as 1.
func NewMatcher(index recognition.IdentityIndex, concurrency int) *Matcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Matcher{index: index, concurrency: concurrency}
}

// MatchFaces searches every non-nil crop concurrently and returns the
// accepted matches in arrival order (no relation to face position). A failed
// search excludes that face and never fails the image; the service enforces
// the acceptance threshold, so every returned match already qualifies.
func (m *Matcher) MatchFaces(ctx context.Context, crops [][]byte) []recognition.IdentityMatch {
	var matches []recognition.IdentityMatch
	var mu sync.Mutex

	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for i, crop := range crops {
		if crop == nil {
			continue
		}
		wg.Add(1)
		go func(faceIndex int, faceCrop []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			match, err := m.index.SearchIdentity(ctx, faceCrop)
			if err != nil {
				slog.Warn("identity search failed, skipping face", "face", faceIndex, "error", err)
				return
			}
			if match == nil {
				return
			}

			mu.Lock()
			matches = append(matches, *match)
			mu.Unlock()
		}(i, crop)
	}

	wg.Wait()
	return matches
}
