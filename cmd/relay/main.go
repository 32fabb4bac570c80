package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/config"
	"github.com/pixelveil/pixelveil/internal/relay"
)

func main() {
	configPath := flag.String("config", "", "Config file (defaults to pixelveil.yaml if present)")
	dnsAddr := flag.String("dns", "", "DNS listen address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP listen address (overrides config)")
	domain := flag.String("domain", "", "Served domain (overrides config)")
	persistent := flag.Bool("persistent", false, "Persist parked messages to disk")
	stateFile := flag.String("state", "relay_state.json", "State file for -persistent")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	explicit := *configPath != ""
	path := *configPath
	if path == "" {
		path = "pixelveil.yaml"
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dnsAddr != "" {
		cfg.Relay.DNSAddr = *dnsAddr
	}
	if *httpAddr != "" {
		cfg.Relay.HTTPAddr = *httpAddr
	}
	if *domain != "" {
		cfg.Relay.Domain = *domain
	}

	var store relay.Backend
	if *persistent {
		fileStore, err := relay.NewFileStore(*stateFile)
		if err != nil {
			log.Fatalf("state file: %v", err)
		}
		store = fileStore
		log.WithField("file", *stateFile).Info("using persistent storage")
	} else {
		store = relay.NewStore()
		log.Info("using in-memory storage")
	}

	log.WithFields(logrus.Fields{
		"domain":    cfg.Relay.Domain,
		"dns_addr":  cfg.Relay.DNSAddr,
		"http_addr": cfg.Relay.HTTPAddr,
		"chunk_ttl": cfg.Relay.ChunkTTL,
	}).Info("relay starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := relay.NewServer(cfg.Relay, store, log)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("relay: %v", err)
	}

	stats := store.Stats()
	log.WithFields(logrus.Fields{
		"messages": stats.Messages,
		"consumed": stats.Consumed,
	}).Info("relay stopped")
}
