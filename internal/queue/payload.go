package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkItem is the decoded content of one queue message: a storage object
// reference plus the owning document.
type WorkItem struct {
	ID         string
	Bucket     string
	Key        string
	DocUID     string
	EnqueuedAt time.Time
}

// The wire format mirrors S3 event notifications, extended with the owning
// document UID and a producer-assigned item id. Kept compatible with the
// historic producer so old and new messages can share a queue; decoders
// ignore the extra field, and messages without it fall back to the queue's
// message id.
type payload struct {
	Records    []payloadRecord `json:"Records"`
	WorkItemID string          `json:"workItemId,omitempty"`
}

type payloadRecord struct {
	S3 payloadS3 `json:"s3"`
}

type payloadS3 struct {
	Bucket       payloadBucket `json:"bucket"`
	Object       payloadObject `json:"object"`
	DocumentUUID payloadDoc    `json:"documentUUID"`
}

type payloadBucket struct {
	Name string `json:"name"`
}

type payloadObject struct {
	Key string `json:"key"`
}

type payloadDoc struct {
	UID string `json:"uid"`
}

// NewWorkItem creates a work item for one storage object.
func NewWorkItem(bucket, key, docUID string) WorkItem {
	return WorkItem{
		ID:         uuid.NewString(),
		Bucket:     bucket,
		Key:        key,
		DocUID:     docUID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Encode serializes the work item into the queue wire format.
func (w WorkItem) Encode() (string, error) {
	body, err := json.Marshal(payload{
		Records: []payloadRecord{{
			S3: payloadS3{
				Bucket:       payloadBucket{Name: w.Bucket},
				Object:       payloadObject{Key: w.Key},
				DocumentUUID: payloadDoc{UID: w.DocUID},
			},
		}},
		WorkItemID: w.ID,
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal work item: %w", err)
	}
	return string(body), nil
}

// DecodeWorkItem parses a queue message body. S3 event notifications
// URL-encode spaces in object keys as '+', so the key is unescaped the same
// way the historic consumer did.
func DecodeWorkItem(msg Message) (WorkItem, error) {
	var p payload
	if err := json.Unmarshal([]byte(msg.Body), &p); err != nil {
		return WorkItem{}, fmt.Errorf("invalid work item payload: %w", err)
	}
	if len(p.Records) == 0 {
		return WorkItem{}, fmt.Errorf("work item payload has no records")
	}

	rec := p.Records[0].S3
	item := WorkItem{
		ID:         p.WorkItemID,
		Bucket:     rec.Bucket.Name,
		Key:        strings.ReplaceAll(rec.Object.Key, "+", " "),
		DocUID:     rec.DocumentUUID.UID,
		EnqueuedAt: msg.ReceivedAt,
	}
	if item.ID == "" {
		item.ID = msg.ID
	}
	if item.Bucket == "" || item.Key == "" || item.DocUID == "" {
		return WorkItem{}, fmt.Errorf("work item payload missing required fields: %q", msg.Body)
	}
	return item, nil
}
