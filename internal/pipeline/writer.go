package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// IdentitiesXPath is the document property holding the recognized identity
// ids.
const IdentitiesXPath = "facerecognition:identities"

// Writer persists the aggregated matches onto the source document.
type Writer struct {
	docs DocumentStore
}

// NewWriter creates a result writer.
func NewWriter(docs DocumentStore) *Writer {
	return &Writer{docs: docs}
}

// SaveMatches replaces the document's recognized-identities property
// wholesale with the given ids (empty slice clears it). The write happens in
// one repository transaction, so a failure leaves the previous value intact.
// Re-running with the same ids stores the same value, which is what makes
// queue redelivery safe.
func (w *Writer) SaveMatches(ctx context.Context, docUID string, identityIDs []string) error {
	value := strings.Join(identityIDs, ",")
	if err := w.docs.SetProperty(ctx, docUID, IdentitiesXPath, value); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
