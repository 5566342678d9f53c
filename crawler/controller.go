package crawler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"oto_scraper/config"
	"oto_scraper/dispatch"
	"oto_scraper/extract"
	"oto_scraper/jobs"
	"oto_scraper/models"
)

// PageSource retrieves raw listing-page HTML. Satisfied by Fetcher; tests
// substitute a canned source.
type PageSource interface {
	ListingHTML(ctx context.Context, category string, page int) (string, error)
}

// RunStore records crawl runs, their log rows and the dispatch audit
// trail. Satisfied by storage.SQLiteStore; may be nil when run tracking is
// not wanted.
type RunStore interface {
	CreateRun(run *models.CrawlRun) (int64, error)
	UpdateRun(run *models.CrawlRun) error
	RecordDispatch(runID int64, jobID, kind, url, handle string, submittedAt time.Time) error
	Log(runID *int64, level models.LogLevel, message, category string) error
}

var pageCountRetry = jobs.RetryPolicy{Attempts: 5, Delay: 30 * time.Second}

// Controller drives the page loop for one category: resolve the page count,
// fetch each page in order, classify and dispatch its offers, pace between
// requests, and isolate per-page failures.
type Controller struct {
	source    PageSource
	submitter dispatch.Submitter
	baseURL   string
	pacing    config.CrawlerConfig
	store     RunStore

	// FlatHook, when set, receives FLAT offers with their canonical detail
	// URL. Left nil, FLAT offers are logged and not dispatched.
	FlatHook func(ctx context.Context, offer models.OfferSummary, detailURL string)

	retry jobs.RetryPolicy
	sleep func(time.Duration)
}

func NewController(source PageSource, submitter dispatch.Submitter, baseURL string, pacing config.CrawlerConfig) *Controller {
	return &Controller{
		source:    source,
		submitter: submitter,
		baseURL:   baseURL,
		pacing:    pacing,
		retry:     pageCountRetry,
		sleep:     time.Sleep,
	}
}

// SetStore attaches run tracking.
func (c *Controller) SetStore(store RunStore) {
	c.store = store
}

// session is the state owned by a single controller run. A fresh run starts
// with an empty investment set, so duplicate dispatch across separate runs
// is accepted, not prevented.
type session struct {
	run             *models.CrawlRun
	seenInvestments map[string]struct{}
}

// Run crawls every page of a category. Page-count resolution failure is
// fatal for the category; individual page failures are logged and skipped.
func (c *Controller) Run(ctx context.Context, category string) error {
	sess := &session{
		run: &models.CrawlRun{
			Category:  category,
			StartedAt: time.Now(),
			Status:    models.RunStatusRunning,
		},
		seenInvestments: make(map[string]struct{}),
	}

	if c.store != nil {
		if id, err := c.store.CreateRun(sess.run); err != nil {
			log.Printf("crawl %s: could not create run record: %v", category, err)
		} else {
			sess.run.ID = id
		}
	}
	defer c.finishRun(sess)

	total, err := c.resolvePageCount(ctx, category)
	if err != nil {
		sess.run.Status = models.RunStatusFailed
		sess.run.ErrorsCount++
		return fmt.Errorf("resolve page count for %s: %w", category, err)
	}
	sess.run.PagesTotal = total
	log.Printf("crawl %s: %d pages", category, total)

	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			sess.run.Status = models.RunStatusFailed
			return err
		}

		c.crawlPage(ctx, category, page, sess)

		if page < total {
			c.sleep(c.interPageDelay())
		}
		c.sleep(c.pacing.PagePause)
	}

	sess.run.Status = models.RunStatusCompleted
	return nil
}

func (c *Controller) finishRun(sess *session) {
	now := time.Now()
	sess.run.FinishedAt = &now
	if c.store != nil {
		if err := c.store.UpdateRun(sess.run); err != nil {
			log.Printf("crawl %s: could not update run record: %v", sess.run.Category, err)
		}
	}
	c.logRun(sess, models.LogLevelInfo, fmt.Sprintf("%s: %d/%d pages, %d offers seen, %d dispatched, %d errors",
		sess.run.Status, sess.run.PagesFetched, sess.run.PagesTotal,
		sess.run.OffersSeen, sess.run.OffersDispatched, sess.run.ErrorsCount))
	log.Printf("crawl %s: %s, %d/%d pages, %d offers seen, %d dispatched, %d errors",
		sess.run.Category, sess.run.Status, sess.run.PagesFetched, sess.run.PagesTotal,
		sess.run.OffersSeen, sess.run.OffersDispatched, sess.run.ErrorsCount)
}

// logRun writes one row to the run's log channel, when run tracking is on.
func (c *Controller) logRun(sess *session, level models.LogLevel, message string) {
	if c.store == nil || sess.run.ID == 0 {
		return
	}
	runID := sess.run.ID
	if err := c.store.Log(&runID, level, message, sess.run.Category); err != nil {
		log.Printf("crawl %s: log write failed: %v", sess.run.Category, err)
	}
}

// crawlPage fetches and processes one page. Transport failures skip to the
// next page; extraction failures additionally trigger the cooldown.
func (c *Controller) crawlPage(ctx context.Context, category string, page int, sess *session) {
	html, err := c.source.ListingHTML(ctx, category, page)
	if err != nil {
		log.Printf("crawl %s page %d: fetch failed: %v", category, page, err)
		c.logRun(sess, models.LogLevelError, fmt.Sprintf("page %d fetch failed: %v", page, err))
		sess.run.ErrorsCount++
		return
	}

	searchAds, err := extract.SearchData(strings.NewReader(html))
	if err != nil {
		log.Printf("crawl %s page %d: extraction failed (%v), cooling down %s",
			category, page, err, c.pacing.Cooldown)
		c.logRun(sess, models.LogLevelWarn, fmt.Sprintf("page %d extraction failed: %v", page, err))
		sess.run.ErrorsCount++
		c.sleep(c.pacing.Cooldown)
		return
	}

	sess.run.PagesFetched++
	offers := parseOffers(searchAds)
	sess.run.OffersSeen += len(offers)

	for _, offer := range offers {
		c.classify(ctx, offer, sess)
	}
}

// classify routes one offer summary: HOUSE dispatches, FLAT goes to the
// hook, INVESTMENT dispatches once per canonical URL per session, anything
// else is ignored.
func (c *Controller) classify(ctx context.Context, offer models.OfferSummary, sess *session) {
	if offer.Href == "" {
		log.Printf("crawl %s: offer %q has no href, skipping", sess.run.Category, offer.Slug)
		return
	}

	detailURL := DetailURL(c.baseURL, offer.Href)

	switch offer.Kind {
	case models.OfferKindHouse:
		c.dispatch(ctx, offer.Kind, detailURL, sess)

	case models.OfferKindFlat:
		if c.FlatHook != nil {
			c.FlatHook(ctx, offer, detailURL)
			return
		}
		log.Printf("crawl %s: flat offer %s (dispatch not wired)", sess.run.Category, detailURL)

	case models.OfferKindInvestment:
		invURL := InvestmentURL(c.baseURL, offer.Slug)
		if _, seen := sess.seenInvestments[invURL]; seen {
			return
		}
		sess.seenInvestments[invURL] = struct{}{}
		c.dispatch(ctx, offer.Kind, detailURL, sess)
	}
}

func (c *Controller) dispatch(ctx context.Context, kind models.OfferKind, url string, sess *session) {
	job := dispatch.NewJob(kind, url)
	handle, err := c.submitter.Submit(ctx, job)
	if err != nil {
		log.Printf("crawl %s: dispatch %s failed: %v", sess.run.Category, url, err)
		sess.run.ErrorsCount++
		return
	}
	sess.run.OffersDispatched++

	if c.store != nil && sess.run.ID != 0 {
		if err := c.store.RecordDispatch(sess.run.ID, job.ID.String(), string(kind), url, string(handle), job.SubmittedAt); err != nil {
			log.Printf("crawl %s: dispatch audit write failed: %v", sess.run.Category, err)
		}
	}
}

// resolvePageCount fetches page 1 and reads the category's total page
// count, retrying per the fixed policy before giving up.
func (c *Controller) resolvePageCount(ctx context.Context, category string) (int, error) {
	var total int
	err := jobs.Retry(ctx, "resolve-page-count", c.retry, func(ctx context.Context) error {
		html, err := c.source.ListingHTML(ctx, category, 1)
		if err != nil {
			return err
		}
		searchAds, err := extract.SearchData(strings.NewReader(html))
		if err != nil {
			return err
		}
		total, err = totalPages(searchAds)
		return err
	})
	if err != nil {
		return 0, err
	}
	if total < 1 {
		return 0, errors.New("page count below 1")
	}
	return total, nil
}

func (c *Controller) interPageDelay() time.Duration {
	min, max := c.pacing.MinPageDelay, c.pacing.MaxPageDelay
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
