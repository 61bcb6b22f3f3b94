package nuxeo

import (
	"context"
	"fmt"
	"strings"
)

// GetDocument fetches a document by UID with its full property set.
func (c *Client) GetDocument(ctx context.Context, uid string) (*Document, error) {
	return doGetJSON[Document](ctx, c, "api/v1/id/"+uid)
}

// FindByDigest looks up the document owning a binary with the given content
// digest. Returns the first match; nil when no document references the digest.
func (c *Client) FindByDigest(ctx context.Context, digest string) (*Document, error) {
	query := fmt.Sprintf("SELECT * FROM Document WHERE file:content/digest = '%s' AND ecm:isVersion = 0",
		strings.ReplaceAll(digest, "'", ""))
	list, err := doOperation[documentList](ctx, c, "Repository.Query", "", map[string]string{
		"query": query,
	})
	if err != nil {
		return nil, err
	}
	if len(list.Entries) == 0 {
		return nil, nil
	}
	return &list.Entries[0], nil
}

// SetProperty sets a single document property and saves the document in the
// same repository transaction (Document.SetProperty with save=true).
func (c *Client) SetProperty(ctx context.Context, uid, xpath, value string) error {
	_, err := doOperation[Document](ctx, c, "Document.SetProperty", uid, map[string]string{
		"xpath": xpath,
		"save":  "true",
		"value": value,
	})
	return err
}
