// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/common/metrics"
	"autoapply/internal/models"
	"autoapply/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const runLockKey = "scheduler:run-lock"

// RunNotifier delivers the per-user summary after an unattended run.
type RunNotifier interface {
	NotifyRunComplete(ctx context.Context, user models.User, result models.AutomationRunResult) error
}

// Config holds the scheduler timing knobs.
type Config struct {
	DailySpec       string
	AcceleratedSpec string
	InterUserDelay  time.Duration
	LockTTL         time.Duration
}

// Scheduler fires the unattended batch run on a cron schedule. A redis
// lease lock guards against a slow run overlapping the next trigger:
// the second trigger observes the lock and skips the whole invocation.
type Scheduler struct {
	config      Config
	runner      *Runner
	store       store.Store
	redisClient redis.Cmdable
	notifier    RunNotifier
	log         logger.Logger

	cron *cron.Cron
	id   string
}

func New(config Config, runner *Runner, st store.Store, redisClient redis.Cmdable, notifier RunNotifier, log logger.Logger) *Scheduler {
	return &Scheduler{
		config:      config,
		runner:      runner,
		store:       st,
		redisClient: redisClient,
		notifier:    notifier,
		log:         log,
		cron:        cron.New(),
		id:          uuid.New().String(),
	}
}

// Start registers the cron entries and begins firing. Fire and forget:
// outcomes surface through notifications, metrics, and stored records.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.DailySpec, s.trigger); err != nil {
		return fmt.Errorf("invalid daily schedule %q: %w", s.config.DailySpec, err)
	}
	if s.config.AcceleratedSpec != "" {
		if _, err := s.cron.AddFunc(s.config.AcceleratedSpec, s.trigger); err != nil {
			return fmt.Errorf("invalid accelerated schedule %q: %w", s.config.AcceleratedSpec, err)
		}
		s.log.Warn("Accelerated schedule active", map[string]interface{}{
			"spec": s.config.AcceleratedSpec,
		})
	}
	s.cron.Start()
	s.log.Info("Scheduler started", map[string]interface{}{
		"dailySpec": s.config.DailySpec,
	})
	return nil
}

// Stop halts the cron loop and waits for a running invocation.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) trigger() {
	ctx := context.Background()
	s.RunOnce(ctx)
}

// RunOnce performs one full scheduled invocation, guarded by the run
// lock. Exposed for manual triggering and tests.
func (s *Scheduler) RunOnce(ctx context.Context) {
	acquired, release := s.acquireLock(ctx)
	if !acquired {
		s.log.Warn("Previous run still holds the lock, skipping this trigger", nil)
		metrics.SchedulerRuns.WithLabelValues("skipped_locked").Inc()
		return
	}
	defer release()

	metrics.SchedulerRuns.WithLabelValues("started").Inc()
	started := time.Now()

	users, err := s.store.EligibleUsers(ctx)
	if err != nil {
		s.log.Error("Could not list eligible users", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.SchedulerRuns.WithLabelValues("failed").Inc()
		return
	}

	s.log.Info("Scheduled run starting", map[string]interface{}{
		"eligibleUsers": len(users),
	})

	for i, user := range users {
		if i > 0 && s.config.InterUserDelay > 0 {
			select {
			case <-time.After(s.config.InterUserDelay):
			case <-ctx.Done():
				s.log.Warn("Run cancelled mid-loop", nil)
				return
			}
		}
		s.runUser(ctx, user)
	}

	metrics.SchedulerRuns.WithLabelValues("completed").Inc()
	s.log.Info("Scheduled run finished", map[string]interface{}{
		"users":    len(users),
		"duration": time.Since(started).String(),
	})
}

// runUser isolates one user's run: a panic or error here must not
// stop the loop over the remaining users.
func (s *Scheduler) runUser(ctx context.Context, user models.User) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("User run panicked", map[string]interface{}{
				"userId": user.ID,
				"panic":  fmt.Sprintf("%v", r),
			})
		}
	}()

	result := s.runner.Run(ctx, user, true, nil)
	metrics.SchedulerUsersProcessed.Inc()

	s.log.Info("User run complete", map[string]interface{}{
		"userId":  user.ID,
		"found":   result.Found,
		"applied": result.Applied,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	})

	if s.notifier != nil {
		if err := s.notifier.NotifyRunComplete(ctx, user, result); err != nil {
			s.log.Warn("Run summary notification failed", map[string]interface{}{
				"userId": user.ID,
				"error":  err.Error(),
			})
		}
	}
}

// acquireLock takes the lease with SETNX+TTL. The TTL bounds how long
// a crashed process can block future runs. Release only deletes the
// lock when this instance still owns it.
func (s *Scheduler) acquireLock(ctx context.Context) (bool, func()) {
	if s.redisClient == nil {
		return true, func() {}
	}

	ok, err := s.redisClient.SetNX(ctx, runLockKey, s.id, s.config.LockTTL).Result()
	if err != nil {
		s.log.Warn("Run lock unavailable, proceeding without", map[string]interface{}{
			"error": err.Error(),
		})
		return true, func() {}
	}
	if !ok {
		return false, nil
	}

	return true, func() {
		owner, err := s.redisClient.Get(ctx, runLockKey).Result()
		if err == nil && owner == s.id {
			s.redisClient.Del(ctx, runLockKey)
		}
	}
}
