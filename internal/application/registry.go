package app

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"vision-inspector/internal/domain/entity"
)

// AnomalySet содержит текущие аномалии осмотра и их журнал. Сохраняются только вместе.
type AnomalySet struct {
	Anomalies []entity.Anomaly
	Log       []entity.LogEntry
}

func setOf(insp *entity.Inspection) AnomalySet {
	return AnomalySet{Anomalies: insp.Anomalies, Log: insp.AnomaliesLog}
}

func (s AnomalySet) indexOf(id string) int {
	for i, a := range s.Anomalies {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Registry выполняет операции над набором аномалий. Каждое успешное изменение
// возвращает новый набор с ровно одной новой записью журнала; входной набор не меняется.
type Registry struct {
	recorder *AuditRecorder
	newID    func() string
}

// NewRegistry создаёт реестр. При newID == nil используется UUID v4.
func NewRegistry(recorder *AuditRecorder, newID func() string) *Registry {
	if recorder == nil {
		recorder = NewAuditRecorder(nil)
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Registry{recorder: recorder, newID: newID}
}

// Get возвращает текущие аномалии; пустой срез, а не nil, если их нет.
func (r *Registry) Get(set AnomalySet) []entity.Anomaly {
	out := make([]entity.Anomaly, 0, len(set.Anomalies))
	for _, a := range set.Anomalies {
		out = append(out, a.Clone())
	}
	return out
}

// Add добавляет аномалию. Без ID генерируется новый, без источника ставится User.
func (r *Registry) Add(set AnomalySet, record entity.Anomaly) (AnomalySet, entity.Anomaly, error) {
	a := record.Clone()
	if a.ID == "" {
		a.ID = r.newID()
	}
	if a.MadeBy == "" {
		a.MadeBy = entity.ProvenanceUser
	}
	if !a.MadeBy.Valid() {
		return set, entity.Anomaly{}, fmt.Errorf("%w: unknown madeBy %q", entity.ErrValidation, a.MadeBy)
	}
	if err := entity.ValidateBox(a.Box); err != nil {
		return set, entity.Anomaly{}, err
	}
	if err := validateConfidence(a.Confidence); err != nil {
		return set, entity.Anomaly{}, err
	}
	if set.indexOf(a.ID) >= 0 {
		return set, entity.Anomaly{}, fmt.Errorf("%w: anomaly %s already exists", entity.ErrValidation, a.ID)
	}

	anomalies := make([]entity.Anomaly, len(set.Anomalies), len(set.Anomalies)+1)
	copy(anomalies, set.Anomalies)
	anomalies = append(anomalies, a)

	next := AnomalySet{
		Anomalies: anomalies,
		Log:       r.recorder.Record(set.Log, entity.ActionAdd, a),
	}
	return next, a.Clone(), nil
}

// Update заменяет поля аномалии, заданные в changes: непустой Box, непустой ClassName,
// ненулевой Confidence. ID и MadeBy всегда остаются исходными.
func (r *Registry) Update(set AnomalySet, id string, changes entity.Anomaly) (AnomalySet, entity.Anomaly, error) {
	idx := set.indexOf(id)
	if idx < 0 {
		return set, entity.Anomaly{}, fmt.Errorf("anomaly %s: %w", id, entity.ErrNotFound)
	}

	updated := set.Anomalies[idx].Clone()
	if len(changes.Box) > 0 {
		if err := entity.ValidateBox(changes.Box); err != nil {
			return set, entity.Anomaly{}, err
		}
		updated.Box = changes.Box.Clone()
	}
	if changes.ClassName != "" {
		updated.ClassName = changes.ClassName
	}
	if changes.Confidence != nil {
		if err := validateConfidence(changes.Confidence); err != nil {
			return set, entity.Anomaly{}, err
		}
		c := *changes.Confidence
		updated.Confidence = &c
	}

	anomalies := make([]entity.Anomaly, len(set.Anomalies))
	copy(anomalies, set.Anomalies)
	anomalies[idx] = updated

	next := AnomalySet{
		Anomalies: anomalies,
		Log:       r.recorder.Record(set.Log, entity.ActionEdit, updated),
	}
	return next, updated.Clone(), nil
}

// Delete удаляет аномалию; её последнее состояние остаётся только в журнале.
func (r *Registry) Delete(set AnomalySet, id string) (AnomalySet, entity.Anomaly, error) {
	idx := set.indexOf(id)
	if idx < 0 {
		return set, entity.Anomaly{}, fmt.Errorf("anomaly %s: %w", id, entity.ErrNotFound)
	}

	removed := set.Anomalies[idx].Clone()
	anomalies := make([]entity.Anomaly, 0, len(set.Anomalies)-1)
	anomalies = append(anomalies, set.Anomalies[:idx]...)
	anomalies = append(anomalies, set.Anomalies[idx+1:]...)

	next := AnomalySet{
		Anomalies: anomalies,
		Log:       r.recorder.Record(set.Log, entity.ActionDelete, removed),
	}
	return next, removed, nil
}

func validateConfidence(c *float64) error {
	if c == nil {
		return nil
	}
	if math.IsNaN(*c) || *c < 0 || *c > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", entity.ErrValidation, *c)
	}
	return nil
}
