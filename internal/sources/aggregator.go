// internal/sources/aggregator.go
package sources

import (
	"context"
	"fmt"
	"sort"

	"autoapply/internal/common/logger"
	"autoapply/internal/common/metrics"
	"autoapply/internal/models"
)

// Aggregator walks the source chain in ascending tier order, accumulating
// postings until the limit is met or every tier is exhausted. It never
// returns an error: every internal failure degrades to the next source.
//
// Deduplication across tiers is deliberately NOT performed here; the
// caller owns the exclusion set.
type Aggregator struct {
	chain       []Source
	minPoolSize int
	logger      logger.Logger
}

// NewAggregator builds the chain sorted by tier, preserving registration
// order within a tier. minPoolSize is the threshold below which the
// fallback tiers are consulted even after the structured tier answered.
func NewAggregator(minPoolSize int, log logger.Logger, srcs ...Source) *Aggregator {
	chain := make([]Source, len(srcs))
	copy(chain, srcs)
	sort.SliceStable(chain, func(i, j int) bool { return chain[i].Tier() < chain[j].Tier() })

	return &Aggregator{
		chain:       chain,
		minPoolSize: minPoolSize,
		logger:      log.WithFields(map[string]interface{}{"component": "aggregator"}),
	}
}

// Search accumulates postings across the tiers. The returned slice may be
// empty only if even the synthetic tier is absent from the chain.
func (a *Aggregator) Search(ctx context.Context, criteria models.SearchCriteria, limit int) []models.JobPosting {
	if limit <= 0 {
		return nil
	}

	var pool []models.JobPosting
	currentTier := 0

	for _, src := range a.chain {
		if len(pool) >= limit {
			break
		}
		// Escalation rules: fallback tiers only run while the pool is
		// below the minimum; the synthetic tier only guarantees a
		// non-empty result set. A satisfied tier is not re-queried.
		if src.Tier() == TierSynthetic && len(pool) > 0 {
			break
		}
		if src.Tier() > TierStructured && src.Tier() > currentTier && len(pool) >= a.minPoolSize {
			break
		}
		currentTier = src.Tier()

		if !src.Available() {
			a.logger.Debug("source unavailable, skipping", map[string]interface{}{
				"source": src.Name(),
			})
			continue
		}

		found := a.searchOne(ctx, src, criteria, limit-len(pool))
		metrics.SourceResults.WithLabelValues(src.Name(), fmt.Sprint(src.Tier())).Add(float64(len(found)))
		pool = append(pool, found...)

		a.logger.Info("source queried", map[string]interface{}{
			"source": src.Name(),
			"tier":   src.Tier(),
			"found":  len(found),
			"pool":   len(pool),
		})
	}

	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}

// searchOne isolates a single source call: errors and panics degrade to
// zero results.
func (a *Aggregator) searchOne(ctx context.Context, src Source, criteria models.SearchCriteria, limit int) (found []models.JobPosting) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SourceFailures.WithLabelValues(src.Name(), fmt.Sprint(src.Tier())).Inc()
			a.logger.Error("source panicked", map[string]interface{}{
				"source": src.Name(),
				"panic":  fmt.Sprint(r),
			})
			found = nil
		}
	}()

	found, err := src.Search(ctx, criteria, limit)
	if err != nil {
		metrics.SourceFailures.WithLabelValues(src.Name(), fmt.Sprint(src.Tier())).Inc()
		a.logger.Warn("source failed, escalating", map[string]interface{}{
			"source": src.Name(),
			"tier":   src.Tier(),
			"error":  err.Error(),
		})
		return nil
	}
	return found
}
