package port

import (
	"time"

	"vision-inspector/internal/domain/entity"
)

// Metrics интерфейс сбора метрик ядра
type Metrics interface {
	ObserveMutation(action entity.Action, madeBy entity.Provenance)
	ObserveImport(outcome string, detections int, duration time.Duration)
	ObserveNumberAttempts(prefix string, attempts int)
	ObserveLogSize(entries int)
}
