// Package numbering issues the human-readable document numbers
// "{PREFIX}-{PERIOD}-{SEQ}". Every issued number is claimed in the
// document_sequences table, whose unique (prefix, period, sequence) index is
// the concurrency guard: a race between two creators surfaces as a duplicate
// claim and the loser retries with a freshly recomputed sequence. Claims are
// never deleted, so numbers of soft-deleted documents are never reissued.
package numbering

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/logger"
)

// ErrClaimTaken is returned by Store.Claim when the (prefix, period,
// sequence) or number slot is already occupied.
var ErrClaimTaken = errors.New("sequence claim already taken")

// Store persists number claims.
type Store interface {
	// IssuedNumbers returns every number ever claimed for prefix+period,
	// including numbers of soft-deleted documents.
	IssuedNumbers(ctx context.Context, prefix, period string) ([]string, error)
	// Claim inserts the claim row, returning ErrClaimTaken on a unique
	// constraint violation.
	Claim(ctx context.Context, claim *model.DocumentSequence) error
}

const maxClaimRetries = 5

// Generator issues document numbers.
type Generator struct {
	store Store
	log   *logger.Logger
}

func NewGenerator(store Store, log *logger.Logger) *Generator {
	return &Generator{store: store, log: log}
}

// Period returns the numbering period for a point in time (monthly).
func Period(t time.Time) string {
	return t.Format("200601")
}

// Format renders a number from its parts, zero-padding the sequence.
func Format(prefix, period string, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, period, seq)
}

// ParseSequence extracts the sequence from a number issued for prefix+period.
func ParseSequence(number, prefix, period string) (int64, error) {
	rest, ok := strings.CutPrefix(number, prefix+"-"+period+"-")
	if !ok {
		return 0, fmt.Errorf("number %q does not match prefix %s and period %s", number, prefix, period)
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq < 1 {
		return 0, fmt.Errorf("number %q has a malformed sequence part", number)
	}
	return seq, nil
}

// Next issues the next number for prefix+period: one greater than the highest
// existing sequence, retried on claim conflicts. If the scan encounters a
// malformed persisted number it logs a warning and falls back to a
// random-suffix number rather than risk a silent collision.
func (g *Generator) Next(ctx context.Context, prefix, period string) (string, error) {
	for attempt := 0; attempt < maxClaimRetries; attempt++ {
		issued, err := g.store.IssuedNumbers(ctx, prefix, period)
		if err != nil {
			return "", fmt.Errorf("failed to scan issued numbers: %w", err)
		}

		maxSeq, malformed := maxSequence(issued, prefix, period)
		if malformed != "" {
			g.log.Warn().
				Str("prefix", prefix).
				Str("period", period).
				Str("number", malformed).
				Msg("malformed document number found during sequence scan, falling back to random suffix")
			return g.claimFallback(ctx, prefix, period, maxSeq)
		}

		number := Format(prefix, period, maxSeq+1)
		claim := &model.DocumentSequence{
			Prefix:   prefix,
			Period:   period,
			Sequence: maxSeq + 1,
			Number:   number,
		}
		err = g.store.Claim(ctx, claim)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, ErrClaimTaken) {
			return "", fmt.Errorf("failed to claim document number: %w", err)
		}
		// Lost the race; rescan and try the next slot.
	}
	return "", apperror.Newf(apperror.KindDuplicateNumber,
		"could not claim a unique number for %s-%s after %d attempts", prefix, period, maxClaimRetries)
}

// maxSequence finds the highest parseable sequence; the first malformed
// number (if any) is reported back to the caller.
func maxSequence(issued []string, prefix, period string) (int64, string) {
	var max int64
	for _, number := range issued {
		seq, err := ParseSequence(number, prefix, period)
		if err != nil {
			return max, number
		}
		if seq > max {
			max = seq
		}
	}
	return max, ""
}

func (g *Generator) claimFallback(ctx context.Context, prefix, period string, maxSeq int64) (string, error) {
	for attempt := 0; attempt < maxClaimRetries; attempt++ {
		number := fmt.Sprintf("%s-%s", Format(prefix, period, maxSeq+1), randomSuffix())
		claim := &model.DocumentSequence{
			Prefix:   prefix,
			Period:   period,
			Sequence: maxSeq + 1 + int64(attempt),
			Number:   number,
		}
		err := g.store.Claim(ctx, claim)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, ErrClaimTaken) {
			return "", fmt.Errorf("failed to claim fallback document number: %w", err)
		}
	}
	return "", apperror.Newf(apperror.KindDuplicateNumber,
		"could not claim a fallback number for %s-%s", prefix, period)
}

func randomSuffix() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in serious trouble; the
		// nanosecond clock still avoids a deterministic collision.
		return fmt.Sprintf("%06x", time.Now().UnixNano()&0xffffff)
	}
	return hex.EncodeToString(b)
}
