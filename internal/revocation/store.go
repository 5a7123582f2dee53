package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hearth/pkg/platform/sentinel"
)

// Store tracks revoked subjects and individually revoked token IDs.
//
// A subject-wide revocation invalidates every token for that subject issued
// at or before the revocation timestamp ("log out everywhere"). A token
// revocation invalidates only that token ID. Entries older than the maximum
// token lifetime ceiling can never match a live token and are pruned, which
// bounds the store without a central token ledger.
type Store interface {
	RevokeSubject(ctx context.Context, subjectID string, at time.Time) error
	RevokeToken(ctx context.Context, tokenID string, at time.Time) error
	// IsRevoked reports whether the (subject, token) pair is revoked for a
	// token minted at issuedAt (milliseconds since epoch).
	IsRevoked(ctx context.Context, subjectID, tokenID string, issuedAt int64) (bool, error)
}

// Pruner is implemented by stores that need an explicit retention sweep;
// TTL-backed stores (Redis) expire entries on their own.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) error
}

// Clock abstracts time for testability.
type Clock func() time.Time

var isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "hearth_is_token_revoked_duration_ms",
	Help:    "Latency of token revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

func observeCheck(start time.Time) {
	isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

func validateTimestamp(at time.Time) error {
	if at.IsZero() {
		return fmt.Errorf("revocation timestamp must be set: %w", sentinel.ErrInvalidState)
	}
	return nil
}
