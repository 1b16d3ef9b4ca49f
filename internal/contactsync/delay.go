// Package contactsync throttles contact-status queries through a decaying
// per-identity request-count accumulator and a polynomial backoff delay.
package contactsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/identity"
	"github.com/simlar/simlar-server-sub000/internal/ledger"
)

const (
	// resetWindow is the inactivity period after which the accumulator falls
	// back to the size of the incoming request.
	resetWindow = 24 * time.Hour

	// blockedDelaySeconds is the sentinel for invalid or overflowed counts.
	blockedDelaySeconds = int64(math.MaxInt32)
)

// Calculator computes the contact-sync delay for a requester.
type Calculator struct {
	contacts ledger.ContactRepository
	logger   *slog.Logger

	now func() time.Time
}

// NewCalculator constructs a delay calculator.
func NewCalculator(contacts ledger.ContactRepository, logger *slog.Logger) *Calculator {
	return &Calculator{contacts: contacts, logger: logger, now: time.Now}
}

// CalculateRequestDelay folds the request into the identity's accumulator row
// and returns the resulting delay in seconds. Identical repeated queries do
// not grow the accumulator; differing queries grow it by the request size.
func (c *Calculator) CalculateRequestDelay(ctx context.Context, id identity.SimlarID, contactSet []string) (int64, error) {
	normalized := normalize(contactSet)
	requestedSize := int64(len(normalized))
	hash := digest(normalized)
	now := c.now()

	entry, err := c.contacts.Update(ctx, id, func(entry *ledger.ContactEntry) (*ledger.ContactEntry, error) {
		count := nextCount(entry, hash, requestedSize, now)
		return &ledger.ContactEntry{Timestamp: now, Hash: hash, Count: count}, nil
	})
	if err != nil {
		return 0, fmt.Errorf("update contact ledger: %w", err)
	}

	delay := DelaySeconds(entry.Count)
	if delay > 0 {
		c.logger.Info("contact request delayed", "simlar_id", id, "count", entry.Count, "delay_seconds", delay)
	}
	return delay, nil
}

func nextCount(entry *ledger.ContactEntry, hash string, requestedSize int64, now time.Time) int64 {
	if entry == nil || now.Sub(entry.Timestamp) > resetWindow {
		return requestedSize
	}
	if entry.Hash == hash {
		// Redundant re-request of the identical set costs nothing extra.
		if entry.Count > requestedSize {
			return entry.Count
		}
		return requestedSize
	}
	if entry.Count > math.MaxInt64-requestedSize {
		return math.MaxInt64
	}
	return entry.Count + requestedSize
}

// DelaySeconds maps an accumulated count to a delay. The quartic shape keeps
// normal address books at zero delay while bulk scraping becomes prohibitively
// slow. The exponent and divisors are tuned values; do not re-derive them.
func DelaySeconds(count int64) int64 {
	if count < 0 {
		return blockedDelaySeconds
	}
	delay := math.Pow(float64(count)/4096, 4) / 4
	if math.IsNaN(delay) || delay >= float64(blockedDelaySeconds) {
		return blockedDelaySeconds
	}
	return int64(delay)
}

func normalize(contactSet []string) []string {
	seen := make(map[string]bool, len(contactSet))
	normalized := make([]string, 0, len(contactSet))
	for _, contact := range contactSet {
		trimmed := strings.TrimSpace(contact)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)
	return normalized
}

func digest(normalized []string) string {
	h := sha256.New()
	for _, contact := range normalized {
		h.Write([]byte(contact))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.Itoa(len(normalized))))
	return hex.EncodeToString(h.Sum(nil))
}
