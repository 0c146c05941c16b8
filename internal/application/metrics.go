package app

import (
	"time"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

type nopMetrics struct{}

func (nopMetrics) ObserveMutation(entity.Action, entity.Provenance) {}
func (nopMetrics) ObserveImport(string, int, time.Duration)         {}
func (nopMetrics) ObserveNumberAttempts(string, int)                {}
func (nopMetrics) ObserveLogSize(int)                               {}

func metricsOrNop(m port.Metrics) port.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
