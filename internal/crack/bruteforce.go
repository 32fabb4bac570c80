package crack

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pixelveil/pixelveil/internal/hashkit"
)

// TotalCombinations returns the number of non-empty strings over a charset of
// the given size with length 1..maxLength. The second return is false when
// the count overflows uint64.
func TotalCombinations(charsetLen, maxLength int) (uint64, bool) {
	if charsetLen <= 0 || maxLength <= 0 {
		return 0, true
	}

	var total uint64
	power := uint64(1)
	for i := 1; i <= maxLength; i++ {
		if power > math.MaxUint64/uint64(charsetLen) {
			return 0, false
		}
		power *= uint64(charsetLen)
		if total > math.MaxUint64-power {
			return 0, false
		}
		total += power
	}
	return total, true
}

// odometer enumerates all strings over a charset in length-then-lexicographic
// order with O(maxLength) memory: a digit slice is incremented from the
// rightmost position, rolling over into the next length when it wraps.
type odometer struct {
	charset []byte
	digits  []int
	buf     []byte
	maxLen  int
	done    bool
}

func newOdometer(charset string, maxLen int) *odometer {
	return &odometer{
		charset: []byte(charset),
		digits:  []int{0},
		buf:     make([]byte, 1, maxLen),
		maxLen:  maxLen,
	}
}

// current renders the candidate for the present digit state.
func (o *odometer) current() string {
	for i, d := range o.digits {
		o.buf[i] = o.charset[d]
	}
	return string(o.buf[:len(o.digits)])
}

// advance steps to the next candidate, returning false when the space is
// exhausted.
func (o *odometer) advance() bool {
	for pos := len(o.digits) - 1; pos >= 0; pos-- {
		o.digits[pos]++
		if o.digits[pos] < len(o.charset) {
			return true
		}
		o.digits[pos] = 0
	}

	// Every position wrapped: grow to the next length.
	if len(o.digits) >= o.maxLen {
		o.done = true
		return false
	}
	o.digits = append(o.digits, 0)
	o.buf = o.buf[:len(o.digits)]
	for i := range o.digits {
		o.digits[i] = 0
	}
	return true
}

// BruteForce enumerates every string over charset with length 1..maxLength in
// length-then-lexicographic order and tests each against the target. The job
// is refused with ErrAttackTooLarge before any hashing when the combination
// space exceeds the engine ceiling.
func (e *Engine) BruteForce(ctx context.Context, target, charset string, maxLength int) (Result, error) {
	normalized, err := NormalizeTarget(target)
	if err != nil {
		return Result{Status: StatusErrored}, err
	}
	if charset == "" {
		return Result{Status: StatusErrored}, fmt.Errorf("charset must not be empty")
	}
	if maxLength < 1 {
		return Result{Status: StatusErrored}, fmt.Errorf("max length must be at least 1")
	}

	total, ok := TotalCombinations(len(charset), maxLength)
	if !ok || total > e.maxCombinations {
		return Result{Status: StatusErrored},
			fmt.Errorf("%w: charset %d, max length %d, ceiling %d",
				ErrAttackTooLarge, len(charset), maxLength, e.maxCombinations)
	}

	e.log.WithFields(logrus.Fields{
		"charset_len": len(charset),
		"max_length":  maxLength,
		"total":       total,
	}).Info("starting brute-force search")

	progress := Progress{Total: total}
	sinceYield := 0
	o := newOdometer(charset, maxLength)

	for {
		candidate := o.current()
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
				"length":  len(candidate),
			}).Info("brute-force match found")
			return Result{Status: StatusFound, Password: candidate, Progress: progress}, nil
		}

		if sinceYield >= e.batchSize {
			sinceYield = 0
			if !e.yield(ctx, progress) {
				return Result{Status: StatusCancelled, Progress: progress}, nil
			}
		}

		if !o.advance() {
			break
		}
	}

	e.report(progress)
	return Result{Status: StatusExhausted, Progress: progress}, nil
}
