package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"oto_scraper/config"
	"oto_scraper/crawler"
	"oto_scraper/dispatch"
	"oto_scraper/httputil"
	"oto_scraper/jobs"
	"oto_scraper/logging"
	"oto_scraper/normalize"
	"oto_scraper/scheduler"
	"oto_scraper/storage"
)

var (
	crawlNow      = flag.Bool("crawl", false, "Run one crawl over all enabled categories and exit")
	crawlCategory = flag.String("category", "", "Limit -crawl to one category id")
	investmentNow = flag.Bool("investment", false, "Run the browser investment crawl and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("crawler.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting oto_scraper...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d category configs", len(cfg.Categories))
	for id, cat := range cfg.Categories {
		log.Printf("  - %s (%s, enabled=%v)", cat.Name, id, cat.Enabled)
	}

	clients := httputil.NewClients(cfg.ProxyURL)
	ctx := context.Background()

	if cfg.Storage.Bucket == "" {
		log.Fatalf("STORAGE_BUCKET is required")
	}
	objectStore, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to init object storage: %v", err)
	}
	sink := storage.NewRecordSink(objectStore)
	log.Printf("Object storage: bucket %s", cfg.Storage.Bucket)

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	fetcher := crawler.NewFetcher(clients.Scraping, cfg.BaseURL)
	pipeline := crawler.NewDetailPipeline(fetcher, normalize.Record, sink)

	if cfg.Postgres.URL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		pipeline.SetMirror(pgStore)
		log.Println("Postgres record mirror enabled")
	}

	runtime := jobs.NewRuntime()
	submitter := dispatch.NewRuntimeSubmitter(runtime, pipeline.Process)

	controller := crawler.NewController(fetcher, submitter, cfg.BaseURL, cfg.Crawler)
	controller.SetStore(sqliteStore)

	investment := crawler.NewInvestmentCrawler(submitter, cfg.BaseURL)
	orchestrator := crawler.NewOrchestrator(cfg, controller, investment)

	// One-shot commands
	if *crawlNow {
		log.Println("Running crawl...")
		if *crawlCategory != "" {
			err = orchestrator.RunCategory(ctx, *crawlCategory)
		} else {
			err = orchestrator.RunAll(ctx)
		}
		if err != nil {
			log.Fatalf("Crawl failed: %v", err)
		}
		runtime.Wait()
		log.Println("Crawl complete!")
		return
	}

	if *investmentNow {
		log.Println("Running investment crawl...")
		if err := orchestrator.RunInvestments(ctx); err != nil {
			log.Fatalf("Investment crawl failed: %v", err)
		}
		runtime.Wait()
		log.Println("Investment crawl complete!")
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, orchestrator, sqliteStore)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	cancel()
	runtime.Wait()
	log.Println("Goodbye!")
}
