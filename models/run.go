package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CrawlRun is one crawl-controller pass over a single category.
type CrawlRun struct {
	ID               int64      `json:"id" db:"id"`
	Category         string     `json:"category" db:"category"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	FinishedAt       *time.Time `json:"finished_at" db:"finished_at"`
	Status           RunStatus  `json:"status" db:"status"`
	PagesTotal       int        `json:"pages_total" db:"pages_total"`
	PagesFetched     int        `json:"pages_fetched" db:"pages_fetched"`
	OffersSeen       int        `json:"offers_seen" db:"offers_seen"`
	OffersDispatched int        `json:"offers_dispatched" db:"offers_dispatched"`
	ErrorsCount      int        `json:"errors_count" db:"errors_count"`
}
