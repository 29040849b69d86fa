package application

import (
	"context"
	"fmt"
	"time"

	"github.com/casapress/casapress/infrastructure/valkey"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/sirupsen/logrus"
)

// PublishScheduler fires deferred publish jobs when their schedule_at
// matures. With Valkey available it keeps due jobs in a ZSET and sleeps on
// an adaptive timer; without it, a plain database poll keeps scheduled
// publishes working.
type PublishScheduler struct {
	repo         content.IContentRepository
	orchestrator *Orchestrator
	valkeyClient *valkey.Client
	pollInterval time.Duration
}

func NewPublishScheduler(repo content.IContentRepository, orchestrator *Orchestrator, vk *valkey.Client) *PublishScheduler {
	return &PublishScheduler{
		repo:         repo,
		orchestrator: orchestrator,
		valkeyClient: vk,
		pollInterval: time.Minute,
	}
}

// StartLoop launches the background worker.
func (s *PublishScheduler) StartLoop(ctx context.Context) {
	if s.valkeyClient == nil {
		logrus.Warn("[SCHEDULER] Valkey disabled, falling back to database polling")
		go s.runPollWorker(ctx)
		return
	}
	go s.runWorker(ctx)
}

// runPollWorker is the no-Valkey fallback: one instance, fixed interval.
func (s *PublishScheduler) runPollWorker(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobs, err := s.repo.ListDueScheduledJobs(ctx, time.Now().UTC())
			if err != nil {
				logrus.WithError(err).Error("[SCHEDULER] Due job scan failed")
				continue
			}
			for _, job := range jobs {
				if err := s.orchestrator.RunScheduledJob(ctx, job.ID); err != nil {
					logrus.WithError(err).Errorf("[SCHEDULER] Job %s failed to start", job.ID)
				}
			}
		}
	}
}

func (s *PublishScheduler) runWorker(ctx context.Context) {
	// Initial hydration
	if err := s.PromoteJobs(ctx); err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Initial job promotion failed")
	}

	safetyTicker := time.NewTicker(5 * time.Minute)
	defer safetyTicker.Stop()

	for {
		nextJobAt := s.ExecJobs(ctx)

		sleepDuration := 1 * time.Hour
		if !nextJobAt.IsZero() {
			sleepDuration = time.Until(nextJobAt)
			if sleepDuration < 0 {
				sleepDuration = 1 * time.Second
			}
			if sleepDuration > 1*time.Hour {
				sleepDuration = 1 * time.Hour
			}
		}

		adaptiveTimer := time.NewTimer(sleepDuration)
		select {
		case <-ctx.Done():
			adaptiveTimer.Stop()
			return
		case <-safetyTicker.C:
			adaptiveTimer.Stop()
			_ = s.PromoteJobs(ctx)
			s.ExecJobs(ctx)
		case <-adaptiveTimer.C:
			_ = s.PromoteJobs(ctx)
			s.ExecJobs(ctx)
		}
	}
}

// PromoteJobs looks 24h ahead in the database and populates the ZSET.
// An NX lock keeps multiple instances from promoting at once.
func (s *PublishScheduler) PromoteJobs(ctx context.Context) error {
	if s.valkeyClient == nil {
		return nil
	}

	if !s.valkeyClient.AcquireLock(ctx, "lock:scheduler:promo", 55*time.Second) {
		return nil
	}

	lookAhead := time.Now().Add(24 * time.Hour).UTC()
	jobs, err := s.repo.ListDueScheduledJobs(ctx, lookAhead)
	if err != nil {
		return err
	}

	key := s.valkeyClient.Key("scheduler:jobs")
	for _, job := range jobs {
		if job.ScheduledAt == nil {
			continue
		}
		score := float64(job.ScheduledAt.Unix())
		_ = s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zadd().Key(key).ScoreMember().ScoreMember(score, job.ID).Build())
	}
	return nil
}

// ExecJobs starts matured jobs and returns the fire time of the next one.
func (s *PublishScheduler) ExecJobs(ctx context.Context) time.Time {
	key := s.valkeyClient.Key("scheduler:jobs")
	now := float64(time.Now().Unix())

	res := s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zrangebyscore().Key(key).Min("-inf").Max(fmt.Sprintf("%f", now)).Build())
	jobIDs, err := res.AsStrSlice()

	if err == nil && len(jobIDs) > 0 {
		for _, id := range jobIDs {
			if !s.valkeyClient.AcquireLock(ctx, "lock:exec:"+id, 30*time.Second) {
				continue
			}

			job, err := s.repo.GetJob(ctx, id)
			if err != nil {
				_ = s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zrem().Key(key).Member(id).Build())
				continue
			}
			if job.Status != content.JobStatusScheduled {
				// Already promoted elsewhere, clean up.
				_ = s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zrem().Key(key).Member(id).Build())
				continue
			}

			logrus.Infof("[SCHEDULER] Firing scheduled publish job %s (property %s)", id, job.PropertyID)

			if err := s.orchestrator.RunScheduledJob(ctx, id); err != nil {
				logrus.WithError(err).Errorf("[SCHEDULER] Job %s failed to start", id)
				continue
			}
			_ = s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zrem().Key(key).Member(id).Build())
		}
	}

	// Peek at the next job's score for the adaptive timer.
	cmdPeek := s.valkeyClient.Inner().B().Zrangebyscore().Key(key).Min("-inf").Max("+inf").Limit(0, 1).Build()
	peekRes, _ := s.valkeyClient.Inner().Do(ctx, cmdPeek).AsStrSlice()

	if len(peekRes) > 0 && peekRes[0] != "" {
		memberID := peekRes[0]
		score, err := s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zscore().Key(key).Member(memberID).Build()).AsFloat64()
		if err == nil {
			return time.Unix(int64(score), 0)
		}
	}

	return time.Time{}
}

// CountPendingJobs returns the number of jobs waiting in the memory queue.
func (s *PublishScheduler) CountPendingJobs(ctx context.Context) int64 {
	if s.valkeyClient == nil {
		return 0
	}
	key := s.valkeyClient.Key("scheduler:jobs")
	res, err := s.valkeyClient.Inner().Do(ctx, s.valkeyClient.Inner().B().Zcard().Key(key).Build()).AsInt64()
	if err != nil {
		return 0
	}
	return res
}
