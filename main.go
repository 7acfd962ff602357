package main

import (
	"context"
	"fmt"
	"os"

	"webring/pkg/articles"
	"webring/pkg/cache"
	"webring/pkg/config"
	"webring/pkg/fetcher"
	"webring/pkg/logging"
	"webring/pkg/render"
	"webring/pkg/urls"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "webring: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return err
	}
	defer logging.Sync()

	// Validate the template before spending time on the network.
	templateText, err := os.ReadFile(cfg.TemplateFile)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}
	tmpl, err := render.Parse(string(templateText))
	if err != nil {
		return err
	}

	feedURLs := cfg.URLs
	if cfg.URLFile != "" {
		fromFile, err := urls.ParseFile(cfg.URLFile)
		if err != nil {
			return err
		}
		feedURLs = append(feedURLs, fromFile...)
	}
	feedURLs = urls.Dedupe(feedURLs)
	if len(feedURLs) == 0 {
		return fmt.Errorf("no feed urls were provided; use -url or -url-file")
	}

	store := cache.New()
	if cfg.UseCache {
		store = cache.Open(cache.DefaultPath, cfg.MaxCacheAge.Value())
	}

	f := fetcher.New(store)
	results, failures := f.FetchAll(context.Background(), feedURLs)
	logging.L.Infof("fetched %d/%d feeds (%d failed)", len(results), len(feedURLs), len(failures))

	if cfg.UseCache {
		if err := store.Save(cache.DefaultPath); err != nil {
			// Persistence is best effort; a full run still renders.
			logging.L.Warnf("failed to save feed cache: %v", err)
		}
	}

	arts := articles.FromFeeds(results, articles.Options{
		PerSource: cfg.PerSource,
		MaxTotal:  cfg.NumArticles,
		Before:    cfg.BeforeTime,
	})

	return render.Render(os.Stdout, tmpl, arts)
}
