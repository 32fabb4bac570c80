package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/config"
	"github.com/pixelveil/pixelveil/internal/crack"
)

func main() {
	target := flag.String("target", "", "Target MD5 digest (32 hex chars)")
	mode := flag.String("mode", "dictionary", "Attack mode: dictionary, brute, candidates, rainbow")
	wordlist := flag.String("wordlist", "", "Wordlist file (dictionary/candidates modes)")
	charset := flag.String("charset", "abcdefghijklmnopqrstuvwxyz0123456789", "Brute-force charset")
	maxLength := flag.Int("max-length", 4, "Brute-force maximum candidate length")
	configPath := flag.String("config", "", "Config file (defaults to pixelveil.yaml if present)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *target == "" {
		log.Fatal("please provide -target")
	}

	explicit := *configPath != ""
	path := *configPath
	if path == "" {
		path = "pixelveil.yaml"
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Ctrl-C cancels at the next batch boundary; partial progress is reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	engine := crack.NewEngine(
		crack.WithBatchSize(cfg.Crack.BatchSize),
		crack.WithMaxCombinations(cfg.Crack.MaxCombinations),
		crack.WithLogger(log),
		crack.WithProgress(func(p crack.Progress) {
			if p.Total > 0 {
				log.WithFields(logrus.Fields{
					"checked": p.Checked,
					"total":   p.Total,
					"rate":    fmt.Sprintf("%.0f/s", float64(p.Checked)/time.Since(started).Seconds()),
				}).Debug("searching")
			}
		}),
	)

	var result crack.Result
	switch *mode {
	case "dictionary":
		words, err := readWordlist(*wordlist)
		if err != nil {
			log.Fatalf("wordlist: %v", err)
		}
		result, err = engine.Dictionary(ctx, *target, words)
		reportOutcome(log, result, err, started)

	case "candidates":
		words, err := readWordlist(*wordlist)
		if err != nil {
			log.Fatalf("wordlist: %v", err)
		}
		result, err = engine.Candidates(ctx, *target, words)
		reportOutcome(log, result, err, started)

	case "brute":
		result, err := engine.BruteForce(ctx, *target, *charset, *maxLength)
		reportOutcome(log, result, err, started)

	case "rainbow":
		_, err := engine.RainbowTable(ctx, *target)
		if errors.Is(err, crack.ErrNotFeasible) {
			log.Fatal("rainbow table attack is not feasible without precomputed tables")
		}
		log.Fatalf("rainbow: %v", err)

	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func reportOutcome(log *logrus.Logger, result crack.Result, err error, started time.Time) {
	if err != nil {
		if errors.Is(err, crack.ErrAttackTooLarge) {
			log.Fatalf("search space too large: %v (raise crack.max_combinations to override)", err)
		}
		log.Fatalf("attack failed: %v", err)
	}

	elapsed := time.Since(started).Round(time.Millisecond)
	fields := logrus.Fields{
		"status":  result.Status,
		"checked": result.Progress.Checked,
		"elapsed": elapsed,
	}

	switch result.Status {
	case crack.StatusFound:
		log.WithFields(fields).Info("password found")
		fmt.Printf("\n✅ Password: %s\n", result.Password)
	case crack.StatusExhausted:
		log.WithFields(fields).Warn("search space exhausted, no match")
		os.Exit(1)
	case crack.StatusCancelled:
		log.WithFields(fields).Warn("search cancelled")
		os.Exit(130)
	default:
		log.WithFields(fields).Error("search ended unexpectedly")
		os.Exit(1)
	}
}

func readWordlist(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("please provide -wordlist")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	return words, scanner.Err()
}
