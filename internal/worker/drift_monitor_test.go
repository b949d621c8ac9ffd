package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/feedback"
)

type stubChecker struct {
	report feedback.DriftReport
	calls  int
}

func (s *stubChecker) CheckDrift(ctx context.Context, threshold float64) feedback.DriftReport {
	s.calls++
	return s.report
}

func newTestMonitor(t *testing.T, checker DriftService) (*DriftMonitor, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := appconfig.DriftConfig{
		RetrainQueue:       "insights:retrain:queue",
		CheckIntervalMin:   60,
		RetrainCooldownMin: 60,
	}
	return NewDriftMonitor(checker, client, cfg), mr
}

func TestDriftTriggersRetrainJob(t *testing.T) {
	checker := &stubChecker{report: feedback.DriftReport{
		Drifted:         true,
		Drift:           0.3,
		CurrentAccuracy: 0.6,
		Samples:         42,
	}}
	monitor, mr := newTestMonitor(t, checker)

	monitor.check(context.Background())

	payload, err := mr.Lpop("insights:retrain:queue")
	require.NoError(t, err)

	var job RetrainJob
	require.NoError(t, json.Unmarshal([]byte(payload), &job))
	assert.InDelta(t, 0.3, job.Drift, 1e-9)
	assert.Equal(t, 42, job.Samples)
	assert.NotEmpty(t, job.JobID)
}

func TestNoDriftNoJob(t *testing.T) {
	checker := &stubChecker{report: feedback.DriftReport{Drifted: false}}
	monitor, mr := newTestMonitor(t, checker)

	monitor.check(context.Background())

	assert.False(t, mr.Exists("insights:retrain:queue"))
	assert.True(t, monitor.lastTrigger.IsZero())
}

func TestRetrainCooldown(t *testing.T) {
	checker := &stubChecker{report: feedback.DriftReport{Drifted: true, Drift: 0.3}}
	monitor, mr := newTestMonitor(t, checker)

	monitor.check(context.Background())
	monitor.check(context.Background())

	list, err := mr.List("insights:retrain:queue")
	require.NoError(t, err)
	assert.Len(t, list, 1, "second drift inside the cooldown must not queue again")

	// Expired cooldown allows a new trigger.
	monitor.lastTrigger = time.Now().Add(-2 * monitor.cooldown)
	monitor.check(context.Background())

	list, err = mr.List("insights:retrain:queue")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRedisFailureDoesNotMarkTriggered(t *testing.T) {
	checker := &stubChecker{report: feedback.DriftReport{Drifted: true}}
	monitor, mr := newTestMonitor(t, checker)
	mr.Close()

	monitor.check(context.Background())
	assert.True(t, monitor.lastTrigger.IsZero(), "a failed check must not consume the cooldown")
}

func TestDriftCheckSkippedWhenLockHeld(t *testing.T) {
	checker := &stubChecker{report: feedback.DriftReport{Drifted: true, Drift: 0.3}}
	monitor, mr := newTestMonitor(t, checker)

	// Another replica holds the lock.
	require.NoError(t, mr.Set(lockKey, "other-replica"))

	monitor.check(context.Background())

	assert.Zero(t, checker.calls, "a held lock must skip the drift check entirely")
	assert.False(t, mr.Exists("insights:retrain:queue"))
}

func TestDriftLockReleasedAfterCheck(t *testing.T) {
	checker := &stubChecker{report: feedback.DriftReport{Drifted: false}}
	monitor, mr := newTestMonitor(t, checker)

	monitor.check(context.Background())
	monitor.check(context.Background())

	assert.Equal(t, 2, checker.calls, "the lock must be released between runs")
	assert.False(t, mr.Exists(lockKey))
}
