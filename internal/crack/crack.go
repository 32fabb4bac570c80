// Package crack runs dictionary and brute-force password searches against an
// MD5 target hash. Work proceeds in fixed-size batches; the only suspension
// point is the batch boundary, where progress is reported and cancellation is
// observed. A batch in flight always completes, so cancellation is prompt but
// never instantaneous.
package crack

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/hashkit"
)

// Status is the lifecycle state of a search job.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusFound
	StatusExhausted
	StatusCancelled
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	case StatusCancelled:
		return "cancelled"
	case StatusErrored:
		return "errored"
	}
	return "unknown"
}

// Progress counts candidates checked against the total search space.
type Progress struct {
	Checked uint64
	Total   uint64
}

// ProgressFunc receives progress after every batch and immediately on a match.
type ProgressFunc func(Progress)

// Result is the terminal outcome of a search job.
type Result struct {
	Status   Status
	Password string
	Progress Progress
}

var (
	// ErrInvalidTarget is returned when the target is not a 32-hex-digit
	// MD5 hash.
	ErrInvalidTarget = errors.New("target must be a 32-digit hex MD5 hash")

	// ErrAttackTooLarge is returned before a brute-force job starts when the
	// combination space exceeds the configured ceiling.
	ErrAttackTooLarge = errors.New("brute-force space exceeds the configured ceiling")

	// ErrNotFeasible is returned for the rainbow-table mode, which is
	// intentionally unsupported.
	ErrNotFeasible = errors.New("rainbow-table attack not feasible")
)

var targetPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NormalizeTarget lowercases and validates a target hash.
func NormalizeTarget(target string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(target))
	if !targetPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	return normalized, nil
}

const (
	// DefaultBatchSize is how many candidates are hashed between yields.
	DefaultBatchSize = 1000
	// DefaultMaxCombinations bounds the brute-force space. One billion MD5
	// computations is hours of work on one core; beyond that the job is
	// refused rather than started.
	DefaultMaxCombinations = 1_000_000_000
)

// Engine executes search jobs. It holds only configuration, so one Engine
// may run any number of jobs, though each job is single-threaded.
type Engine struct {
	batchSize       int
	maxCombinations uint64
	onProgress      ProgressFunc
	log             logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize overrides the per-yield candidate count.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxCombinations overrides the brute-force ceiling.
func WithMaxCombinations(n uint64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCombinations = n
		}
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// WithLogger injects a logger for per-batch diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine constructs an Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		batchSize:       DefaultBatchSize,
		maxCombinations: DefaultMaxCombinations,
		log:             logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// report delivers progress to the callback, if any.
func (e *Engine) report(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

// yield is the cooperative suspension point between batches. It reports
// progress, hands the scheduler a chance to run, and observes cancellation.
// Cancellation is checked here and nowhere else.
func (e *Engine) yield(ctx context.Context, p Progress) bool {
	e.report(p)
	e.log.WithFields(logrus.Fields{
		"checked": p.Checked,
		"total":   p.Total,
	}).Debug("search batch complete")

	runtime.Gosched()
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

// Dictionary checks candidate words in source order against the target.
// Words are trimmed of surrounding whitespace and nothing else; the first
// match in source order wins. The returned progress counts how many
// candidates were hashed, including the match itself.
func (e *Engine) Dictionary(ctx context.Context, target string, words []string) (Result, error) {
	normalized, err := NormalizeTarget(target)
	if err != nil {
		return Result{Status: StatusErrored}, err
	}

	progress := Progress{Total: uint64(len(words))}
	sinceYield := 0

	for _, word := range words {
		candidate := strings.TrimSpace(word)
		digest, err := hashkit.Digest(hashkit.MD5, candidate)
		if err != nil {
			return Result{Status: StatusErrored, Progress: progress}, err
		}
		progress.Checked++
		sinceYield++

		if digest == normalized {
			e.report(progress)
			e.log.WithFields(logrus.Fields{
				"checked": progress.Checked,
				"total":   progress.Total,
			}).Info("dictionary match found")
			return Result{Status: StatusFound, Password: candidate, Progress: progress}, nil
		}

		if sinceYield >= e.batchSize {
			sinceYield = 0
			if !e.yield(ctx, progress) {
				return Result{Status: StatusCancelled, Progress: progress}, nil
			}
		}
	}

	e.report(progress)
	return Result{Status: StatusExhausted, Progress: progress}, nil
}

// Candidates feeds an externally generated candidate list (for example from
// an AI guessing service) through the dictionary primitive.
func (e *Engine) Candidates(ctx context.Context, target string, candidates []string) (Result, error) {
	return e.Dictionary(ctx, target, candidates)
}

// RainbowTable is deliberately unsupported.
func (e *Engine) RainbowTable(context.Context, string) (Result, error) {
	return Result{Status: StatusErrored}, ErrNotFeasible
}
