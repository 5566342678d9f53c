package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oto_scraper/jobs"
	"oto_scraper/models"
)

// ObjectPutter is the slice of object storage the sink needs. The real
// implementation is S3Store; tests use an in-memory map.
type ObjectPutter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

var sinkRetry = jobs.RetryPolicy{Attempts: 3, Delay: 20 * time.Second}

// RecordSink serializes canonical records and writes them under
// date-partitioned, slug-keyed object names. Writes are idempotent by key:
// re-processing an offer on the same calendar day replaces the prior
// object.
type RecordSink struct {
	store ObjectPutter
	retry jobs.RetryPolicy
	now   func() time.Time
}

func NewRecordSink(store ObjectPutter) *RecordSink {
	return &RecordSink{store: store, retry: sinkRetry, now: time.Now}
}

// ObjectKey builds the storage key for a slug at time t:
// {year}/{month}/{day}/{slug}.json, date components unpadded.
func ObjectKey(slug string, t time.Time) string {
	return fmt.Sprintf("%d/%d/%d/%s.json", t.Year(), int(t.Month()), t.Day(), slug)
}

// Store writes one record and returns the object's etag. The write-time
// date partitions the key, not the listing's observed date.
func (s *RecordSink) Store(ctx context.Context, rec *models.CanonicalRecord) (string, error) {
	if rec.Slug == "" {
		return "", fmt.Errorf("record has no slug, refusing to build storage key")
	}

	body, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	key := ObjectKey(rec.Slug, s.now())

	var etag string
	err = jobs.Retry(ctx, "store-record", s.retry, func(ctx context.Context) error {
		var putErr error
		etag, putErr = s.store.PutObject(ctx, key, body, "application/json")
		return putErr
	})
	if err != nil {
		return "", err
	}
	return etag, nil
}
