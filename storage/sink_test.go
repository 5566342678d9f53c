package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"oto_scraper/jobs"
	"oto_scraper/models"
)

// memPutter is an in-memory object store: one value per key, last write
// wins, etag derived from the write counter.
type memPutter struct {
	objects map[string][]byte
	writes  int
	fail    int // fail the first N puts
}

func newMemPutter() *memPutter {
	return &memPutter{objects: make(map[string][]byte)}
}

func (m *memPutter) PutObject(_ context.Context, key string, body []byte, _ string) (string, error) {
	m.writes++
	if m.writes <= m.fail {
		return "", errors.New("service unavailable")
	}
	m.objects[key] = body
	return fmt.Sprintf("etag-%d", m.writes), nil
}

func newTestSink(store ObjectPutter, now time.Time) *RecordSink {
	s := NewRecordSink(store)
	s.retry = jobs.RetryPolicy{Attempts: 3, Delay: time.Millisecond}
	s.now = func() time.Time { return now }
	return s
}

func record(slug string, price float64) *models.CanonicalRecord {
	return &models.CanonicalRecord{Slug: slug, Price: &price}
}

func TestObjectKey(t *testing.T) {
	day := time.Date(2026, time.March, 7, 15, 4, 5, 0, time.UTC)
	got := ObjectKey("dom-ID1", day)
	if got != "2026/3/7/dom-ID1.json" {
		t.Fatalf("ObjectKey = %q", got)
	}
}

func TestStore_WritesDatePartitionedKey(t *testing.T) {
	putter := newMemPutter()
	day := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	sink := newTestSink(putter, day)

	etag, err := sink.Store(context.Background(), record("dom-ID1", 450000))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if etag == "" {
		t.Fatalf("expected an etag")
	}

	body, ok := putter.objects["2026/8/29/dom-ID1.json"]
	if !ok {
		t.Fatalf("object missing, keys: %v", putter.objects)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("stored body not json: %v", err)
	}
	if out["price"] != 450000.0 {
		t.Fatalf("price in object: got %v", out["price"])
	}
	if !strings.Contains(string(body), "\n    ") {
		t.Fatalf("expected indented output, got %q", body)
	}
}

func TestStore_IdempotentSameDay(t *testing.T) {
	putter := newMemPutter()
	day := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	sink := newTestSink(putter, day)

	if _, err := sink.Store(context.Background(), record("dom-ID1", 100)); err != nil {
		t.Fatalf("first store failed: %v", err)
	}
	if _, err := sink.Store(context.Background(), record("dom-ID1", 200)); err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	if len(putter.objects) != 1 {
		t.Fatalf("expected one object, got %d", len(putter.objects))
	}

	var out map[string]any
	if err := json.Unmarshal(putter.objects["2026/8/29/dom-ID1.json"], &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["price"] != 200.0 {
		t.Fatalf("second write should win, got price %v", out["price"])
	}
}

func TestStore_RetriesThenSucceeds(t *testing.T) {
	putter := newMemPutter()
	putter.fail = 2
	sink := newTestSink(putter, time.Now())

	if _, err := sink.Store(context.Background(), record("dom-ID2", 1)); err != nil {
		t.Fatalf("store should succeed on third attempt: %v", err)
	}
	if putter.writes != 3 {
		t.Fatalf("expected 3 put attempts, got %d", putter.writes)
	}
}

func TestStore_FailsAfterRetriesExhausted(t *testing.T) {
	putter := newMemPutter()
	putter.fail = 10
	sink := newTestSink(putter, time.Now())

	if _, err := sink.Store(context.Background(), record("dom-ID3", 1)); err == nil {
		t.Fatalf("expected hard failure after retries")
	}
}

func TestStore_RejectsMissingSlug(t *testing.T) {
	putter := newMemPutter()
	sink := newTestSink(putter, time.Now())

	if _, err := sink.Store(context.Background(), &models.CanonicalRecord{}); err == nil {
		t.Fatalf("expected error for record without slug")
	}
	if putter.writes != 0 {
		t.Fatalf("no put should be attempted without a slug")
	}
}
