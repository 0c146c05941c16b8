package app

import (
	"time"

	"vision-inspector/internal/domain/entity"
)

// AuditRecorder дописывает записи в журнал аномалий.
// Журнал не сжимается и не ротируется: рост не ограничен.
type AuditRecorder struct {
	now func() time.Time
}

// NewAuditRecorder создаёт регистратор с заданными часами (nil означает time.Now).
func NewAuditRecorder(now func() time.Time) *AuditRecorder {
	if now == nil {
		now = time.Now
	}
	return &AuditRecorder{now: now}
}

// Record возвращает новый журнал с одной добавленной записью о действии над снимком аномалии.
// Исходный срез не изменяется.
func (r *AuditRecorder) Record(log []entity.LogEntry, action entity.Action, snapshot entity.Anomaly) []entity.LogEntry {
	ts := r.now().UTC()
	// Часы могли уйти назад: журнал одного осмотра не убывает по времени.
	if n := len(log); n > 0 {
		if last := log[n-1].Time(); !last.IsZero() && ts.Before(last) {
			ts = last
		}
	}

	box := snapshot.Box.Clone()
	if box == nil {
		box = entity.Box{}
	}
	confidence := 0.0
	if snapshot.Confidence != nil {
		confidence = *snapshot.Confidence
	}

	entry := entity.LogEntry{
		ID:         snapshot.ID,
		Box:        box,
		Confidence: confidence,
		ClassName:  snapshot.ClassName,
		Timestamp:  entity.FormatTimestamp(ts),
		MadeBy:     snapshot.MadeBy,
		Action:     action,
	}

	out := make([]entity.LogEntry, len(log), len(log)+1)
	copy(out, log)
	return append(out, entry)
}
