package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"newsdeck/internal/cloud"
	"newsdeck/internal/config"
	"newsdeck/internal/fetch"
	"newsdeck/internal/logger"
	"newsdeck/internal/model"
	"newsdeck/internal/network"
	"newsdeck/internal/scheduler"
	"newsdeck/internal/service"
	"newsdeck/internal/store"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	st, err := store.Open(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	snapshot := model.DefaultSnapshot()
	if saved, err := st.LoadGuestSnapshot(ctx); err != nil {
		logger.Warn("guest snapshot load failed", "module", "main", "action", "load", "resource", "settings", "result", "failed", "error", err)
	} else if saved != nil {
		snapshot = *saved
	}

	catalog := service.NewCatalogService(snapshot)
	overlay, err := service.NewOverlayService(ctx, st)
	if err != nil {
		log.Fatalf("load overlay: %v", err)
	}

	blobs, err := cloud.NewFileStore(filepath.Join(cfg.DataDir, "blobs"))
	if err != nil {
		log.Fatalf("open blob store: %v", err)
	}
	syncService := service.NewSyncService(catalog, overlay, blobs, st, cfg.SettingsBlobName, cfg.MaxSyncAge)

	factory := network.NewClientFactory(cfg.ProxyURL)
	fetcher := fetch.New(factory, cfg.RelayURLs, cfg.FetchTimeout)
	aggregator := service.NewAggregator(fetcher)

	sched := scheduler.New(syncService, cfg.SyncCheckInterval)
	sched.Start()
	defer sched.Stop()

	result, err := aggregator.Aggregate(ctx, catalog.Feeds())
	if err != nil {
		logger.Error("aggregation failed", "module", "main", "action", "aggregate", "resource", "feed", "result", "failed", "error", err)
	} else {
		printArticles(result, overlay)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down", "module", "main", "action", "shutdown", "resource", "app", "result", "ok")
}

func printArticles(result service.AggregateResult, overlay service.OverlayService) {
	for _, title := range result.Errors {
		fmt.Printf("! %s: fetch failed\n", title)
	}
	for _, article := range result.Articles {
		marker := " "
		if overlay.IsRead(article.ID) {
			marker = "r"
		}
		if overlay.IsBookmarked(article.ID) {
			marker += "*"
		}
		date := "          "
		if article.Published != nil {
			date = article.Published.Format("2006-01-02")
		}
		fmt.Printf("%-2s %s  %-40.40s  %s\n", marker, date, article.Title, article.Source)
	}
}
