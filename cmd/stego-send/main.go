package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/chunker"
	"github.com/pixelveil/pixelveil/internal/config"
	"github.com/pixelveil/pixelveil/internal/relay"
)

func main() {
	input := flag.String("input", "", "Stego PNG or intermediate payload file to send")
	httpBase := flag.String("server", "", "Relay HTTP base URL, e.g. http://localhost:8053 (overrides config)")
	domain := flag.String("domain", "", "Relay domain (overrides config)")
	encoding := flag.String("encoding", "base32", "Chunk encoding: base32 or hex")
	configPath := flag.String("config", "", "Config file (defaults to pixelveil.yaml if present)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *input == "" {
		log.Fatal("❌ Please provide -input")
	}

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
	if *httpBase == "" {
		*httpBase = "http://" + cfg.Relay.HTTPAddr
	}

	enc := chunker.Encoding(*encoding)
	if enc != chunker.EncodingBase32 && enc != chunker.EncodingHex {
		log.Fatalf("❌ Unknown encoding %q", *encoding)
	}

	fmt.Println("\n🚀 PixelVeil Uploader")

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("❌ Error reading input: %v", err)
	}
	fmt.Printf("📦 Artifact: %s (%d bytes)\n", *input, len(data))

	msg, err := chunker.New(enc).Split(data)
	if err != nil {
		log.Fatalf("❌ Chunking failed: %v", err)
	}
	fmt.Printf("   Chunks: %d (%s)\n", len(msg.Chunks), enc)
	fmt.Printf("   Message ID: %s\n", msg.IDString())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := relay.NewClient(*httpBase, "", *domain, "sender", logger)
	if err := client.Upload(ctx, msg, enc); err != nil {
		log.Fatalf("❌ %v", err)
	}

	fmt.Println("\n🎉 Upload complete!")
	fmt.Printf("Receiver fetch:  pixelveil stego-recv -msg %s\n", msg.IDString())
}
