package crack

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelveil/pixelveil/internal/hashkit"
)

func md5Of(t *testing.T, s string) string {
	t.Helper()
	digest, err := hashkit.Digest(hashkit.MD5, s)
	require.NoError(t, err)
	return digest
}

func quietEngine(opts ...Option) *Engine {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewEngine(append([]Option{WithLogger(log)}, opts...)...)
}

func TestNormalizeTarget(t *testing.T) {
	got, err := NormalizeTarget("5F4DCC3B5AA765D61D8327DEB882CF99")
	require.NoError(t, err)
	assert.Equal(t, "5f4dcc3b5aa765d61d8327deb882cf99", got)

	for _, bad := range []string{"", "xyz", "5f4dcc3b", "5f4dcc3b5aa765d61d8327deb882cf9g"} {
		_, err := NormalizeTarget(bad)
		assert.ErrorIs(t, err, ErrInvalidTarget, "%q", bad)
	}
}

func TestDictionaryFindsFirstMatchInSourceOrder(t *testing.T) {
	e := quietEngine()

	result, err := e.Dictionary(context.Background(), md5Of(t, "hunter2"),
		[]string{"foo", "hunter2", "bar"})
	require.NoError(t, err)

	assert.Equal(t, StatusFound, result.Status)
	assert.Equal(t, "hunter2", result.Password)
	assert.Equal(t, uint64(2), result.Progress.Checked)
	assert.Equal(t, uint64(3), result.Progress.Total)
}

func TestDictionaryTrimsCandidateWhitespace(t *testing.T) {
	e := quietEngine()

	result, err := e.Dictionary(context.Background(), md5Of(t, "hunter2"),
		[]string{"  hunter2\n"})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
	assert.Equal(t, "hunter2", result.Password)
}

func TestDictionaryExhausted(t *testing.T) {
	e := quietEngine()

	result, err := e.Dictionary(context.Background(), md5Of(t, "missing"),
		[]string{"foo", "bar"})
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, result.Status)
	assert.Equal(t, uint64(2), result.Progress.Checked)
}

func TestDictionaryUppercaseTargetNormalized(t *testing.T) {
	e := quietEngine()

	upper := ""
	for _, c := range md5Of(t, "hunter2") {
		if c >= 'a' && c <= 'f' {
			c = c - 'a' + 'A'
		}
		upper += string(c)
	}
	result, err := e.Dictionary(context.Background(), upper, []string{"hunter2"})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
}

func TestBruteForceScenario(t *testing.T) {
	e := quietEngine()

	// Length-1 candidates enumerate "a" then "b".
	result, err := e.BruteForce(context.Background(), md5Of(t, "b"), "ab", 2)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
	assert.Equal(t, "b", result.Password)
	assert.Equal(t, uint64(2), result.Progress.Checked)
	assert.Equal(t, uint64(6), result.Progress.Total) // 2 + 4
}

func TestBruteForceLengthThenLexOrder(t *testing.T) {
	e := quietEngine()

	// "ba" is the 2+2+1 = 5th candidate: a, b, aa, ab, ba.
	result, err := e.BruteForce(context.Background(), md5Of(t, "ba"), "ab", 2)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
	assert.Equal(t, "ba", result.Password)
	assert.Equal(t, uint64(5), result.Progress.Checked)
}

func TestBruteForceExhausted(t *testing.T) {
	e := quietEngine()

	result, err := e.BruteForce(context.Background(), md5Of(t, "zzz"), "ab", 3)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, result.Status)
	assert.Equal(t, uint64(14), result.Progress.Checked) // 2 + 4 + 8
}

func TestBruteForceRefusesOversizedSpace(t *testing.T) {
	e := quietEngine(WithMaxCombinations(100))

	_, err := e.BruteForce(context.Background(), md5Of(t, "x"),
		"abcdefghijklmnopqrstuvwxyz", 4)
	assert.ErrorIs(t, err, ErrAttackTooLarge)
}

func TestBruteForceInputValidation(t *testing.T) {
	e := quietEngine()

	_, err := e.BruteForce(context.Background(), "not-a-hash", "ab", 2)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	result, err := e.BruteForce(context.Background(), md5Of(t, "x"), "", 2)
	assert.Error(t, err)
	assert.Equal(t, StatusErrored, result.Status)

	_, err = e.BruteForce(context.Background(), md5Of(t, "x"), "ab", 0)
	assert.Error(t, err)
}

func TestCancellationAtBatchBoundary(t *testing.T) {
	var observed []Progress
	ctx, cancel := context.WithCancel(context.Background())

	e := quietEngine(
		WithBatchSize(10),
		WithProgress(func(p Progress) {
			observed = append(observed, p)
			if len(observed) == 3 {
				cancel()
			}
		}),
	)

	// A target that never matches over a large space.
	result, err := e.BruteForce(ctx, md5Of(t, "no such match"), "abcdefgh", 6)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, result.Status)
	assert.NotEqual(t, StatusExhausted, result.Status)
	assert.NotEqual(t, StatusFound, result.Status)

	// Progress is monotonically non-decreasing up to the cancellation point,
	// advancing in whole batches.
	require.NotEmpty(t, observed)
	for i := 1; i < len(observed); i++ {
		assert.GreaterOrEqual(t, observed[i].Checked, observed[i-1].Checked)
	}
	assert.Equal(t, uint64(30), result.Progress.Checked)
}

func TestCandidatesMode(t *testing.T) {
	e := quietEngine()

	// Externally supplied guesses run through the same primitive.
	result, err := e.Candidates(context.Background(), md5Of(t, "летопись"),
		[]string{"guess one", "летопись"})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
	assert.Equal(t, "летопись", result.Password)
}

func TestRainbowTableNotFeasible(t *testing.T) {
	e := quietEngine()

	result, err := e.RainbowTable(context.Background(), md5Of(t, "x"))
	assert.ErrorIs(t, err, ErrNotFeasible)
	assert.Equal(t, StatusErrored, result.Status)
}

func TestTotalCombinations(t *testing.T) {
	total, ok := TotalCombinations(2, 2)
	require.True(t, ok)
	assert.Equal(t, uint64(6), total)

	total, ok = TotalCombinations(26, 3)
	require.True(t, ok)
	assert.Equal(t, uint64(26+676+17576), total)

	_, ok = TotalCombinations(95, 32)
	assert.False(t, ok, "overflow must be detected")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "found", StatusFound.String())
	assert.Equal(t, "cancelled", StatusCancelled.String())
	assert.Equal(t, "exhausted", StatusExhausted.String())
}
