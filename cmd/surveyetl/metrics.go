package main

import (
	"go.uber.org/zap"

	"surveyetl/internal/config"
	"surveyetl/internal/metrics"
	"surveyetl/internal/metrics/datadog"
	"surveyetl/internal/metrics/prompush"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultDatadogAddr    = "127.0.0.1:8125"
)

// setupMetrics installs the configured backend and returns a function that
// flushes it and restores the no-op backend. Backend errors only disable
// metrics.
func setupMetrics(p config.Pipeline, runID string, log *zap.Logger) func() {
	m := p.Metrics
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "pushgateway":
		url := m.PushgatewayURL
		if url == "" {
			url = defaultPushgatewayURL
		}
		b, err = prompush.NewBackend(p.Job, url, runID)
		if err == nil {
			log.Info("metrics: pushgateway", zap.String("url", url))
		}
	case "datadog":
		addr := m.DatadogAddr
		if addr == "" {
			addr = defaultDatadogAddr
		}
		tags := append([]string{"run_id:" + runID}, m.Tags...)
		b, err = datadog.NewBackend(datadog.Config{Addr: addr, Namespace: m.Namespace, GlobalTags: tags})
		if err == nil {
			log.Info("metrics: datadog", zap.String("addr", addr))
		}
	case "", "none":
		log.Debug("metrics: disabled")
		return func() {}
	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", m.Backend))
		return func() {}
	}
	if err != nil {
		log.Warn("metrics: backend init failed; using nop", zap.String("backend", m.Backend), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush error", zap.Error(err))
		}
		metrics.SetBackend(nil)
	}
}
