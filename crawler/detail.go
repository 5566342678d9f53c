package crawler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"oto_scraper/dispatch"
	"oto_scraper/extract"
	"oto_scraper/jobs"
	"oto_scraper/models"
)

// DetailSource retrieves raw detail-page HTML by canonical URL.
type DetailSource interface {
	DetailHTML(ctx context.Context, url string) (string, error)
}

// RecordStore is the persistence sink for normalized records.
type RecordStore interface {
	Store(ctx context.Context, rec *models.CanonicalRecord) (string, error)
}

// RecordMirror is an optional secondary destination (the Postgres mirror).
type RecordMirror interface {
	UpsertRecord(ctx context.Context, rec *models.CanonicalRecord) error
}

// Normalizer flattens a raw offer payload into a canonical record.
type Normalizer func(payload map[string]any) (*models.CanonicalRecord, error)

var detailFetchRetry = jobs.RetryPolicy{Attempts: 3, Delay: 40 * time.Second}

// DetailPipeline is the per-offer job body: fetch the detail page, extract
// the offer payload, normalize it, store the record. Runs on the job
// runtime, concurrently with the ongoing page loop.
type DetailPipeline struct {
	source    DetailSource
	normalize Normalizer
	sink      RecordStore
	mirror    RecordMirror
	retry     jobs.RetryPolicy
}

func NewDetailPipeline(source DetailSource, normalize Normalizer, sink RecordStore) *DetailPipeline {
	return &DetailPipeline{
		source:    source,
		normalize: normalize,
		sink:      sink,
		retry:     detailFetchRetry,
	}
}

// SetMirror attaches the optional relational record mirror.
func (p *DetailPipeline) SetMirror(mirror RecordMirror) {
	p.mirror = mirror
}

// Process handles one dispatched offer job end to end.
func (p *DetailPipeline) Process(ctx context.Context, job dispatch.Job) error {
	var payload map[string]any

	err := jobs.Retry(ctx, "fetch-offer-detail", p.retry, func(ctx context.Context) error {
		html, err := p.source.DetailHTML(ctx, job.URL)
		if err != nil {
			return err
		}
		payload, err = extract.AdPayload(strings.NewReader(html))
		return err
	})
	if err != nil {
		return fmt.Errorf("offer %s: %w", job.URL, err)
	}

	rec, err := p.normalize(payload)
	if err != nil {
		return fmt.Errorf("offer %s: normalize: %w", job.URL, err)
	}

	etag, err := p.sink.Store(ctx, rec)
	if err != nil {
		return fmt.Errorf("offer %s: store: %w", job.URL, err)
	}
	log.Printf("stored %s (etag=%s)", rec.Slug, etag)

	// Mirror failures don't fail the job: the object store is the system of
	// record.
	if p.mirror != nil {
		if err := p.mirror.UpsertRecord(ctx, rec); err != nil {
			log.Printf("mirror %s: %v", rec.Slug, err)
		}
	}

	return nil
}
