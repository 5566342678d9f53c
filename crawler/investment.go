package crawler

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/playwright-community/playwright-go"

	"oto_scraper/dispatch"
	"oto_scraper/identity"
	"oto_scraper/models"
)

const (
	advertListSelector  = "ul[data-cy='adverts-list-container'] li a"
	nextPageSelector    = "//ul[@data-cy='adverts-pagination']/li[@title='Go to next Page']"
	consentSelector     = "//button[@id='onetrust-accept-btn-handler']"
	pageSettleTimeoutMs = 2000
)

// InvestmentCrawler paginates a listing UI in a real browser session,
// collecting every offer link across all pages, then dispatches one detail
// job per unique href in sorted order. Used for investment listings whose
// pagination is rendered client-side.
type InvestmentCrawler struct {
	submitter dispatch.Submitter
	baseURL   string
}

func NewInvestmentCrawler(submitter dispatch.Submitter, baseURL string) *InvestmentCrawler {
	return &InvestmentCrawler{submitter: submitter, baseURL: baseURL}
}

// Run drives the browser from startURL to the last page and dispatches the
// collected hrefs.
func (ic *InvestmentCrawler) Run(ctx context.Context, startURL string) error {
	hrefs, err := ic.collectHrefs(startURL)
	if err != nil {
		return err
	}

	sort.Strings(hrefs)
	log.Printf("investment crawl: %d unique offers", len(hrefs))

	for _, href := range hrefs {
		url := DetailURL(ic.baseURL, href)
		job := dispatch.NewJob(models.OfferKindInvestment, url)
		if _, err := ic.submitter.Submit(ctx, job); err != nil {
			log.Printf("investment crawl: dispatch %s failed: %v", url, err)
		}
	}
	return nil
}

func (ic *InvestmentCrawler) collectHrefs(startURL string) ([]string, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(identity.BrowserUserAgent),
		Locale:            playwright.String("pl-PL"),
		Viewport:          &playwright.Size{Width: 1280, Height: 720},
		DeviceScaleFactor: playwright.Float(1),
		IsMobile:          playwright.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if _, err := page.Goto(startURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return nil, fmt.Errorf("goto %s: %w", startURL, err)
	}

	ic.acceptConsent(page)

	seen := make(map[string]struct{})
	for {
		hrefs, err := ic.pageHrefs(page)
		if err != nil {
			log.Printf("investment crawl: failed to extract hrefs: %v", err)
			break
		}
		for _, href := range hrefs {
			if href != "" {
				seen[href] = struct{}{}
			}
		}

		if !ic.gotoNextPage(page) {
			break
		}
	}

	all := make([]string, 0, len(seen))
	for href := range seen {
		all = append(all, href)
	}
	return all, nil
}

func (ic *InvestmentCrawler) acceptConsent(page playwright.Page) {
	btn := page.Locator(consentSelector)
	if visible, _ := btn.IsVisible(); visible {
		if err := btn.Click(); err != nil {
			log.Printf("investment crawl: consent click failed: %v", err)
		}
	}
}

func (ic *InvestmentCrawler) pageHrefs(page playwright.Page) ([]string, error) {
	result, err := page.Locator(advertListSelector).EvaluateAll(
		"elements => elements.map(el => el.getAttribute('href'))")
	if err != nil {
		return nil, err
	}

	items, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected href evaluation result %T", result)
	}

	hrefs := make([]string, 0, len(items))
	for _, item := range items {
		if href, ok := item.(string); ok {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

// nextPageDisabled reports whether the pagination control is marked
// disabled. A bare disabled attribute carries an empty value, so presence
// counts, not the value.
func nextPageDisabled(ariaDisabled string, hasDisabledAttr bool) bool {
	return ariaDisabled == "true" || hasDisabledAttr
}

// gotoNextPage clicks the next-page control and reports whether another
// page was opened. The control being invisible or disabled ends the crawl.
func (ic *InvestmentCrawler) gotoNextPage(page playwright.Page) bool {
	next := page.Locator(nextPageSelector)

	if visible, _ := next.IsVisible(); !visible {
		log.Println("investment crawl: no pagination available (single page)")
		return false
	}

	ariaDisabled, _ := next.GetAttribute("aria-disabled")
	var hasDisabledAttr bool
	if res, err := next.Evaluate("el => el.hasAttribute('disabled')", nil); err == nil {
		hasDisabledAttr, _ = res.(bool)
	}
	if nextPageDisabled(ariaDisabled, hasDisabledAttr) {
		return false
	}

	if err := next.Click(); err != nil {
		log.Printf("investment crawl: next-page click failed: %v", err)
		return false
	}
	page.WaitForTimeout(pageSettleTimeoutMs)
	return true
}
