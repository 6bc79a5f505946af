package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrichment-api/internal/config"
)

func baseCfg() config.MonitoringConfig {
	return config.MonitoringConfig{
		FailureRateThreshold: 0.25,
		CostThresholdUSD:     50.0,
		StalledAfterMins:     30,
		LookbackWindowHours:  24,
	}
}

func TestAlerter_Evaluate_FailureRate(t *testing.T) {
	a := NewAlerter(baseCfg())

	snap := &MetricsSnapshot{
		JobsCompleted: 6,
		JobsFailed:    4,
		FailRate:      0.4,
		LookbackHours: 24,
	}
	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertJobFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
}

func TestAlerter_Evaluate_FailureRateNeedsVolume(t *testing.T) {
	a := NewAlerter(baseCfg())

	// 1 failed out of 2 finished is above threshold but below the volume floor.
	snap := &MetricsSnapshot{
		JobsCompleted: 1,
		JobsFailed:    1,
		FailRate:      0.5,
	}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_CostOverrun(t *testing.T) {
	a := NewAlerter(baseCfg())

	snap := &MetricsSnapshot{CostUSD: 75.5, PromptCalls: 900, LookbackHours: 24}
	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCostOverrun, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "$75.50")
}

func TestAlerter_Evaluate_CostThresholdDisabled(t *testing.T) {
	cfg := baseCfg()
	cfg.CostThresholdUSD = 0
	a := NewAlerter(cfg)

	snap := &MetricsSnapshot{CostUSD: 500}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_StalledJobs(t *testing.T) {
	a := NewAlerter(baseCfg())

	snap := &MetricsSnapshot{StalledRunning: 2}
	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStalledJobs, alerts[0].Type)
	assert.Equal(t, "medium", alerts[0].Severity)
}

func TestAlerter_Evaluate_Healthy(t *testing.T) {
	a := NewAlerter(baseCfg())

	snap := &MetricsSnapshot{
		JobsCompleted: 20,
		JobsFailed:    1,
		FailRate:      1.0 / 21.0,
		CostUSD:       3.2,
	}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := baseCfg()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertCostOverrun, Severity: "high", Message: "cost"},
		{Type: AlertStalledJobs, Severity: "medium", Message: "stalled"},
	})
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_WebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := baseCfg()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertCostOverrun}})
	assert.Zero(t, sent)
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(baseCfg())

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertCostOverrun}})
	assert.Zero(t, sent)
}
