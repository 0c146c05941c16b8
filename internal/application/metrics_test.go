package app

import (
	"time"

	"vision-inspector/internal/domain/entity"
)

type countingMetrics struct {
	mutations map[entity.Action]int
	imports   map[string]int
	imported  int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{mutations: map[entity.Action]int{}, imports: map[string]int{}}
}

func (m *countingMetrics) ObserveMutation(action entity.Action, _ entity.Provenance) {
	m.mutations[action]++
}

func (m *countingMetrics) ObserveImport(outcome string, detections int, _ time.Duration) {
	m.imports[outcome]++
	m.imported += detections
}

func (m *countingMetrics) ObserveNumberAttempts(string, int) {}
func (m *countingMetrics) ObserveLogSize(int)                {}

func (m *countingMetrics) totalMutations() int {
	n := 0
	for _, c := range m.mutations {
		n += c
	}
	return n
}
