// internal/scheduler/runner.go
package scheduler

import (
	"context"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
	"autoapply/internal/pipeline"
	"autoapply/internal/store"
)

// Searcher is the discovery surface, satisfied by sources.Aggregator.
type Searcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria, limit int) []models.JobPosting
}

// Processor is the per-posting stage machine, satisfied by
// pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, user models.User, posting models.JobPosting, sink pipeline.EventSink) *models.ApplicationRecord
}

// Runner drives one user's discovery-and-apply loop: exclusion set,
// over-fetch search, duplicate partition, budget cap, per-posting
// pipeline invocations, tally. Shared between the unattended
// scheduler and the interactive entry point.
type Runner struct {
	searcher  Searcher
	pipe      Processor
	store     store.Store
	log       logger.Logger
	overFetch int
	perRunCap int
}

func NewRunner(searcher Searcher, pipe Processor, st store.Store, overFetch, perRunCap int, log logger.Logger) *Runner {
	return &Runner{
		searcher:  searcher,
		pipe:      pipe,
		store:     st,
		log:       log,
		overFetch: overFetch,
		perRunCap: perRunCap,
	}
}

// Run executes one full cycle for the user. capped=false lifts the
// per-run budget for interactive runs. Events flow to sink in posting
// processing order; a nil sink discards them.
func (r *Runner) Run(ctx context.Context, user models.User, capped bool, sink pipeline.EventSink) models.AutomationRunResult {
	result := models.AutomationRunResult{
		UserID:    user.ID,
		StartedAt: time.Now().UTC(),
	}

	exclusion := r.exclusionSet(ctx, user.ID)

	postings := r.searcher.Search(ctx, user.Criteria, r.overFetch)
	result.Found = len(postings)

	var fresh []models.JobPosting
	for _, posting := range postings {
		url := models.NormalizeURL(posting.URL)
		if exclusion[url] {
			result.Skipped++
			continue
		}
		// Marking the survivor here also drops intra-batch repeats:
		// two sources reporting the same URL yield one invocation.
		exclusion[url] = true
		fresh = append(fresh, posting)
	}

	if capped && len(fresh) > r.perRunCap {
		// Everything over the budget waits for a later run; it is
		// not counted as skipped because it was never a duplicate.
		fresh = fresh[:r.perRunCap]
	}

	for _, posting := range fresh {
		posting := posting
		emitFound(sink, user.ID, &posting)

		record := r.pipe.Process(ctx, user, posting, sink)
		switch record.Status {
		case models.StatusApplied:
			result.Applied++
		case models.StatusError:
			result.Errors++
		}
	}

	result.FinishedAt = time.Now().UTC()

	if err := r.store.RecordRunSummary(ctx, result); err != nil {
		r.log.Warn("Failed to persist run summary", map[string]interface{}{
			"userId": user.ID,
			"error":  err.Error(),
		})
	}

	emitComplete(sink, user.ID, &result)
	return result
}

// exclusionSet loads the user's full application history keyed by
// normalized URL. A load failure yields an empty set: the run
// proceeds and may create duplicates rather than doing nothing.
func (r *Runner) exclusionSet(ctx context.Context, userID string) map[string]bool {
	urls, err := r.store.AppliedURLs(ctx, userID)
	if err != nil {
		r.log.Warn("Could not load exclusion set, proceeding without", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
	set := make(map[string]bool, len(urls))
	for _, url := range urls {
		set[models.NormalizeURL(url)] = true
	}
	return set
}

func emitFound(sink pipeline.EventSink, userID string, posting *models.JobPosting) {
	if sink == nil {
		return
	}
	sink.Emit(models.ProgressEvent{
		Type:       models.EventJobFound,
		UserID:     userID,
		Job:        posting,
		OccurredAt: time.Now().UTC(),
	})
}

func emitComplete(sink pipeline.EventSink, userID string, summary *models.AutomationRunResult) {
	if sink == nil {
		return
	}
	sink.Emit(models.ProgressEvent{
		Type:       models.EventRunComplete,
		UserID:     userID,
		Summary:    summary,
		OccurredAt: time.Now().UTC(),
	})
}
