// Package ingest drives a full pipeline run: decode a bucket notification,
// download the referenced objects, stream their rows into storage, and push
// the refreshed database snapshot back to the bucket.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"csvingest/internal/record"
)

// EventObject identifies one uploaded object named by a bucket notification.
type EventObject struct {
	Bucket string
	Key    string
}

// ParseEvent decodes a bucket notification payload. The payload shape is the
// standard S3 event: a top-level Records list whose entries carry
// s3.bucket.name and s3.object.key.
func ParseEvent(r io.Reader) (record.Record, error) {
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("ingest: decode event: %w", err)
	}
	return record.New(m), nil
}

// EventObjects extracts the objects an event refers to, in event order.
// Entries missing a bucket name or key are skipped.
func EventObjects(event record.Record) []EventObject {
	var out []EventObject
	for _, item := range event.Slice("Records") {
		rec, ok := item.(record.Record)
		if !ok {
			continue
		}
		s3 := rec.Map("s3")
		obj := EventObject{
			Bucket: s3.Map("bucket").String("name"),
			Key:    s3.Map("object").String("key"),
		}
		if obj.Bucket == "" || obj.Key == "" {
			continue
		}
		out = append(out, obj)
	}
	return out
}
