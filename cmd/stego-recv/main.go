package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/config"
	"github.com/pixelveil/pixelveil/internal/relay"
)

func main() {
	dnsAddr := flag.String("server", "", "Relay DNS address, e.g. localhost:5353 (overrides config)")
	domain := flag.String("domain", "", "Relay domain (overrides config)")
	clientID := flag.String("client", "receiver1", "Client identifier for poll tracking")
	msgID := flag.String("msg", "", "Fetch a specific message ID instead of polling")
	output := flag.String("output", "received.png", "Output file for the reassembled artifact")
	watch := flag.Bool("watch", false, "Keep polling until a message arrives")
	pollInterval := flag.Duration("poll-interval", 5*time.Second, "Delay between polls in -watch mode")
	configPath := flag.String("config", "", "Config file (defaults to pixelveil.yaml if present)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	explicit := *configPath != ""
	path := *configPath
	if path == "" {
		path = "pixelveil.yaml"
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	if *domain == "" {
		*domain = cfg.Relay.Domain
	}
	if *dnsAddr == "" {
		*dnsAddr = cfg.Relay.DNSAddr
	}

	fmt.Println("\n📡 PixelVeil Receiver")
	fmt.Printf("   Server: %s\n", *dnsAddr)
	fmt.Printf("   Domain: %s\n", *domain)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := relay.NewClient("", *dnsAddr, *domain, *clientID, logger)

	id := *msgID
	if id == "" {
		id, err = waitForMessage(ctx, client, *watch, *pollInterval)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	fmt.Printf("\n📥 Fetching message %s...\n", id)
	data, err := client.Fetch(ctx, id)
	if err != nil {
		log.Fatalf("❌ Fetch failed: %v", err)
	}

	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("❌ Cannot write output: %v", err)
	}

	if err := client.Ack(ctx, id); err != nil {
		logger.WithError(err).Warn("acknowledgement failed; message may be redelivered")
	}

	fmt.Printf("\n✅ Message reassembled! (%d bytes)\n", len(data))
	fmt.Printf("   Saved to: %s\n", *output)
	fmt.Printf("\n🔓 To decode: pixelveil decode -input %s\n", *output)
}

// waitForMessage polls the relay until a pending message ID shows up. Without
// -watch, a single empty poll is an error.
func waitForMessage(ctx context.Context, client *relay.Client, watch bool, interval time.Duration) (string, error) {
	for {
		ids, err := client.Poll(ctx)
		if err != nil {
			return "", err
		}
		if len(ids) > 0 {
			if len(ids) > 1 {
				fmt.Printf("📬 %d messages pending; fetching %s first\n", len(ids), ids[0])
			}
			return ids[0], nil
		}
		if !watch {
			return "", fmt.Errorf("no pending messages (use -watch to keep polling)")
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
