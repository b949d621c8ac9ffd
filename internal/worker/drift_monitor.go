// Package worker holds the background loops that run alongside the API
// server.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/feedback"
	"github.com/bravola/insights/internal/pkg/distlock"
	"github.com/bravola/insights/internal/pkg/logger"
)

// lockKey serializes drift checks across worker replicas so a single drift
// event cannot queue duplicate retrain jobs.
const lockKey = "insights:drift:lock"

// DriftService runs one drift evaluation.
type DriftService interface {
	CheckDrift(ctx context.Context, threshold float64) feedback.DriftReport
}

// RetrainJob is the payload pushed onto the retrain queue for the offline
// training pipeline.
type RetrainJob struct {
	JobID           string    `json:"job_id"`
	Reason          string    `json:"reason"`
	Drift           float64   `json:"drift"`
	CurrentAccuracy float64   `json:"current_accuracy"`
	Samples         int       `json:"samples"`
	TriggeredAt     time.Time `json:"triggered_at"`
}

// DriftMonitor periodically evaluates model drift and queues a retrain job
// when the threshold is exceeded, at most once per cooldown window.
type DriftMonitor struct {
	checker     DriftService
	redis       *redis.Client
	lock        *distlock.Lock
	queue       string
	interval    time.Duration
	cooldown    time.Duration
	lastTrigger time.Time
}

// NewDriftMonitor creates the monitor from the drift configuration.
func NewDriftMonitor(checker DriftService, redisClient *redis.Client, cfg appconfig.DriftConfig) *DriftMonitor {
	interval := cfg.CheckInterval()
	return &DriftMonitor{
		checker:  checker,
		redis:    redisClient,
		lock:     distlock.New(redisClient, lockKey, interval),
		queue:    cfg.RetrainQueue,
		interval: interval,
		cooldown: cfg.RetrainCooldown(),
	}
}

// Start begins the monitoring loop. It blocks until ctx is cancelled.
func (m *DriftMonitor) Start(ctx context.Context) {
	logger.Info("drift monitor starting",
		"interval", m.interval.String(),
		"cooldown", m.cooldown.String(),
		"queue", m.queue)

	// Run once immediately on start
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("drift monitor stopping")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *DriftMonitor) check(ctx context.Context) {
	acquired, err := m.lock.Acquire(ctx)
	if err != nil {
		logger.Error("drift lock unavailable", "error", err.Error())
		return
	}
	if !acquired {
		logger.Debug("drift check held by another replica")
		return
	}
	defer func() {
		if err := m.lock.Release(ctx); err != nil {
			logger.Warn("drift lock release failed", "error", err.Error())
		}
	}()

	report := m.checker.CheckDrift(ctx, 0)
	if !report.Drifted {
		return
	}

	if !m.lastTrigger.IsZero() && time.Since(m.lastTrigger) < m.cooldown {
		logger.Info("drift detected but retrain cooldown active",
			"drift", report.Drift,
			"last_trigger", m.lastTrigger.Format(time.RFC3339))
		return
	}

	if err := m.enqueueRetrain(ctx, report); err != nil {
		logger.Error("failed to enqueue retrain job", "error", err.Error())
		return
	}
	m.lastTrigger = time.Now()
}

func (m *DriftMonitor) enqueueRetrain(ctx context.Context, report feedback.DriftReport) error {
	job := RetrainJob{
		JobID:           "RT_" + uuid.New().String()[:8],
		Reason:          "model drift exceeded threshold",
		Drift:           report.Drift,
		CurrentAccuracy: report.CurrentAccuracy,
		Samples:         report.Samples,
		TriggeredAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := m.redis.LPush(ctx, m.queue, payload).Err(); err != nil {
		return err
	}

	logger.Warn("retrain job queued",
		"job_id", job.JobID,
		"drift", report.Drift,
		"current_accuracy", report.CurrentAccuracy)
	return nil
}
