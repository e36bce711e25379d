package numbering

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/logger"
)

// fakeStore keeps claims in memory and enforces the same uniqueness the
// database index does. failClaims > 0 makes the next N claims collide.
type fakeStore struct {
	mu         sync.Mutex
	claims     []*model.DocumentSequence
	failClaims int
}

func (s *fakeStore) IssuedNumbers(_ context.Context, prefix, period string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var numbers []string
	for _, c := range s.claims {
		if c.Prefix == prefix && c.Period == period {
			numbers = append(numbers, c.Number)
		}
	}
	return numbers, nil
}

func (s *fakeStore) Claim(_ context.Context, claim *model.DocumentSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failClaims > 0 {
		s.failClaims--
		return ErrClaimTaken
	}
	for _, c := range s.claims {
		if c.Number == claim.Number {
			return ErrClaimTaken
		}
		if c.Prefix == claim.Prefix && c.Period == claim.Period && c.Sequence == claim.Sequence {
			return ErrClaimTaken
		}
	}
	s.claims = append(s.claims, claim)
	return nil
}

func (s *fakeStore) seed(prefix, period string, numbers ...string) {
	for i, n := range numbers {
		s.claims = append(s.claims, &model.DocumentSequence{
			Prefix: prefix, Period: period, Sequence: int64(i + 1), Number: n,
		})
	}
}

func testGenerator(store *fakeStore) *Generator {
	return NewGenerator(store, logger.New(logger.Config{Level: "error"}))
}

func TestNextStartsAtOne(t *testing.T) {
	store := &fakeStore{}
	g := testGenerator(store)

	number, err := g.Next(context.Background(), model.DocTypePurchaseOrder, "202609")
	require.NoError(t, err)
	assert.Equal(t, "PO-202609-00001", number)
}

func TestNextIncrementsFromMax(t *testing.T) {
	store := &fakeStore{}
	store.seed("PO", "202609", "PO-202609-00001", "PO-202609-00007", "PO-202609-00003")
	g := testGenerator(store)

	number, err := g.Next(context.Background(), "PO", "202609")
	require.NoError(t, err)
	assert.Equal(t, "PO-202609-00008", number)
}

func TestNextIsolatesPrefixAndPeriod(t *testing.T) {
	store := &fakeStore{}
	store.seed("PO", "202608", "PO-202608-00042")
	store.seed("PR", "202609", "PR-202609-00009")
	g := testGenerator(store)

	number, err := g.Next(context.Background(), "PO", "202609")
	require.NoError(t, err)
	assert.Equal(t, "PO-202609-00001", number,
		"other prefixes and periods must not influence the sequence")
}

func TestNextNeverReissuesRetiredNumbers(t *testing.T) {
	// Claims survive document soft-deletion, so the scan still sees the
	// retired number and moves past it.
	store := &fakeStore{}
	store.seed("API", "202609", "API-202609-00001", "API-202609-00002")
	g := testGenerator(store)

	number, err := g.Next(context.Background(), "API", "202609")
	require.NoError(t, err)
	assert.Equal(t, "API-202609-00003", number)
}

func TestNextRetriesOnClaimConflict(t *testing.T) {
	store := &fakeStore{failClaims: 2}
	g := testGenerator(store)

	number, err := g.Next(context.Background(), "SO", "202609")
	require.NoError(t, err)
	assert.Equal(t, "SO-202609-00001", number)
}

func TestNextExhaustedRetries(t *testing.T) {
	store := &fakeStore{failClaims: maxClaimRetries}
	g := testGenerator(store)

	_, err := g.Next(context.Background(), "SO", "202609")
	require.Error(t, err)
	assert.Equal(t, apperror.KindDuplicateNumber, apperror.KindOf(err))
}

func TestNextConcurrentCallersGetDistinctNumbers(t *testing.T) {
	store := &fakeStore{}
	g := testGenerator(store)

	const callers = 8
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := g.Next(context.Background(), "GR", "202609")
			if err != nil {
				// A caller may exhaust its retries under heavy contention;
				// that is an acceptable outcome, duplicates are not.
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for number := range results {
		assert.False(t, seen[number], "number %s issued twice", number)
		seen[number] = true
	}
	assert.NotEmpty(t, seen)
}

func TestNextMalformedNumberFallsBack(t *testing.T) {
	store := &fakeStore{}
	store.seed("PO", "202609", "PO-202609-00004", "PO-202609-GARBAGE")
	g := testGenerator(store)

	number, err := g.Next(context.Background(), "PO", "202609")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(number, "PO-202609-00005-"),
		"fallback number %s should carry a random suffix", number)
	assert.Greater(t, len(number), len("PO-202609-00005"))
}

func TestParseSequence(t *testing.T) {
	seq, err := ParseSequence("PO-202609-00042", "PO", "202609")
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	for _, bad := range []string{
		"PO-202609-",
		"PO-202609-abc",
		"PO-202609-00000",
		"PO-202608-00001",
		"PR-202609-00001",
		"PO202609-00001",
	} {
		_, err := ParseSequence(bad, "PO", "202609")
		assert.Error(t, err, bad)
	}
}

func TestFormatAndPeriod(t *testing.T) {
	assert.Equal(t, "CN-202609-00007", Format("CN", "202609", 7))
	assert.Equal(t, "CN-202609-12345", Format("CN", "202609", 12345))

	at := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "202609", Period(at))
}
