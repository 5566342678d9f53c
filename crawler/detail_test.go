package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"oto_scraper/dispatch"
	"oto_scraper/jobs"
	"oto_scraper/models"
	"oto_scraper/normalize"
)

type fakeDetailSource struct {
	html     string
	failures int
	calls    int
}

func (f *fakeDetailSource) DetailHTML(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("read timeout")
	}
	return f.html, nil
}

type fakeRecordStore struct {
	records []*models.CanonicalRecord
}

func (f *fakeRecordStore) Store(_ context.Context, rec *models.CanonicalRecord) (string, error) {
	f.records = append(f.records, rec)
	return fmt.Sprintf("etag-%d", len(f.records)), nil
}

func detailDoc(body string) string {
	return fmt.Sprintf(`<html><body><script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"ad":%s}}}</script></body></html>`, body)
}

func newTestPipeline(source DetailSource, sink RecordStore) *DetailPipeline {
	p := NewDetailPipeline(source, normalize.Record, sink)
	p.retry = jobs.RetryPolicy{Attempts: 3, Delay: time.Millisecond}
	return p
}

func TestDetailPipeline_Process(t *testing.T) {
	source := &fakeDetailSource{html: detailDoc(`{"id":7,"slug":"dom-ID7","characteristics":[{"key":"price","value":"500000"}]}`)}
	sink := &fakeRecordStore{}

	p := newTestPipeline(source, sink)
	job := dispatch.NewJob(models.OfferKindHouse, base+"/pl/oferta/dom-ID7")

	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(sink.records))
	}

	rec := sink.records[0]
	if rec.Slug != "dom-ID7" {
		t.Fatalf("slug: got %s", rec.Slug)
	}
	if rec.Price == nil || *rec.Price != 500000 {
		t.Fatalf("price: got %v", rec.Price)
	}
}

func TestDetailPipeline_RetriesFetch(t *testing.T) {
	source := &fakeDetailSource{
		html:     detailDoc(`{"slug":"dom-ID8"}`),
		failures: 2,
	}
	sink := &fakeRecordStore{}

	p := newTestPipeline(source, sink)
	job := dispatch.NewJob(models.OfferKindHouse, base+"/pl/oferta/dom-ID8")

	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("process should succeed on the third attempt: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 fetch attempts, got %d", source.calls)
	}
}

func TestDetailPipeline_FetchExhaustion(t *testing.T) {
	source := &fakeDetailSource{failures: 10}
	sink := &fakeRecordStore{}

	p := newTestPipeline(source, sink)
	job := dispatch.NewJob(models.OfferKindHouse, base+"/pl/oferta/dom-ID9")

	if err := p.Process(context.Background(), job); err == nil {
		t.Fatalf("expected failure after retries exhausted")
	}
	if len(sink.records) != 0 {
		t.Fatalf("nothing should be stored on fetch failure")
	}
}

func TestDetailPipeline_MissingSlugSurfaces(t *testing.T) {
	source := &fakeDetailSource{html: detailDoc(`{"id":1,"characteristics":[]}`)}
	sink := &fakeRecordStore{}

	p := newTestPipeline(source, sink)
	job := dispatch.NewJob(models.OfferKindHouse, base+"/pl/oferta/broken")

	err := p.Process(context.Background(), job)
	if err == nil {
		t.Fatalf("expected error for payload without slug")
	}
	if !errors.Is(err, normalize.ErrIncompleteRecord) {
		t.Fatalf("expected ErrIncompleteRecord, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("incomplete record must not reach the sink")
	}
}
