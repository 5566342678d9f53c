package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"oto_scraper/jobs"
	"oto_scraper/models"
)

// Job is one fetch-and-process unit of work for a single offer.
type Job struct {
	ID          uuid.UUID
	Kind        models.OfferKind
	URL         string
	SubmittedAt time.Time
}

// Handle identifies a submitted job. Opaque: callers log it but never block
// on it.
type Handle string

// Submitter hands a job to the scheduling runtime, fire-and-forget.
type Submitter interface {
	Submit(ctx context.Context, job Job) (Handle, error)
}

// NewJob stamps a job with identity and submission time.
func NewJob(kind models.OfferKind, url string) Job {
	return Job{
		ID:          uuid.New(),
		Kind:        kind,
		URL:         url,
		SubmittedAt: time.Now(),
	}
}

// RuntimeSubmitter runs each job's processing function on the in-process
// job runtime.
type RuntimeSubmitter struct {
	runtime *jobs.Runtime
	process func(context.Context, Job) error
}

func NewRuntimeSubmitter(runtime *jobs.Runtime, process func(context.Context, Job) error) *RuntimeSubmitter {
	return &RuntimeSubmitter{runtime: runtime, process: process}
}

func (s *RuntimeSubmitter) Submit(ctx context.Context, job Job) (Handle, error) {
	handle := s.runtime.Go(ctx, "offer-detail", func(ctx context.Context) error {
		return s.process(ctx, job)
	})
	return Handle(handle), nil
}
