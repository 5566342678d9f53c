package crawler

import (
	"context"
	"fmt"
	"log"

	"oto_scraper/config"
	"oto_scraper/models"
)

// Orchestrator runs the crawl controller over every enabled category and
// drives the browser-based investment crawler. Category failures are
// isolated: one failing category never aborts the others.
type Orchestrator struct {
	cfg        *config.Config
	controller *Controller
	investment *InvestmentCrawler
	paused     bool
}

func NewOrchestrator(cfg *config.Config, controller *Controller, investment *InvestmentCrawler) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		controller: controller,
		investment: investment,
	}
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	if o.paused {
		log.Println("Crawler is paused, skipping run")
		return nil
	}

	for id, cat := range o.cfg.Categories {
		if !cat.Enabled {
			continue
		}
		if err := o.RunCategory(ctx, id); err != nil {
			log.Printf("Error crawling category %s: %v", id, err)
		}
	}

	return nil
}

func (o *Orchestrator) RunCategory(ctx context.Context, categoryID string) error {
	cat, ok := o.cfg.Categories[categoryID]
	if !ok {
		return fmt.Errorf("unknown category: %s", categoryID)
	}
	return o.controller.Run(ctx, cat.PathSlug)
}

// RunInvestments crawls every category's investment listing UI, where one
// is configured.
func (o *Orchestrator) RunInvestments(ctx context.Context) error {
	if o.investment == nil {
		return fmt.Errorf("investment crawler not configured")
	}

	for id, cat := range o.cfg.Categories {
		if cat.InvestmentStartURL == "" {
			continue
		}
		if err := o.investment.Run(ctx, cat.InvestmentStartURL); err != nil {
			log.Printf("Error crawling investments for %s: %v", id, err)
		}
	}
	return nil
}

func (o *Orchestrator) HandleCommand(ctx context.Context, cmd *models.Command, params *models.CommandParams) error {
	switch cmd.Command {
	case models.CmdCrawlNow:
		return o.RunAll(ctx)
	case models.CmdCrawlCategory:
		if params != nil && params.Category != "" {
			return o.RunCategory(ctx, params.Category)
		}
		return o.RunAll(ctx)
	case models.CmdInvestment:
		if o.investment == nil {
			return fmt.Errorf("investment crawler not configured")
		}
		if params != nil && params.StartURL != "" {
			return o.investment.Run(ctx, params.StartURL)
		}
		return o.RunInvestments(ctx)
	case models.CmdPause:
		o.paused = true
		log.Println("Crawler paused")
	case models.CmdResume:
		o.paused = false
		log.Println("Crawler resumed")
	}

	return nil
}

func (o *Orchestrator) IsPaused() bool {
	return o.paused
}
