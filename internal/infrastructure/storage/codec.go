package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"vision-inspector/internal/domain/entity"
)

// decodeList разбирает хранимый массив. Старые записи хранят его как JSON-строку
// с массивом внутри; оба вида приводятся к типизированному срезу здесь, один раз.
func decodeList[T any](raw []byte) ([]T, error) {
	out := []T{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode string-encoded list: %w", err)
		}
		return decodeList[T]([]byte(inner))
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func decodeAnomalies(raw []byte) ([]entity.Anomaly, error) {
	return decodeList[entity.Anomaly](raw)
}

func decodeLog(raw []byte) ([]entity.LogEntry, error) {
	return decodeList[entity.LogEntry](raw)
}

// encodeList всегда пишет массив, а не null.
func encodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// cloneInspection возвращает глубокую копию: хранилище не делит срезы с вызывающим.
func cloneInspection(in *entity.Inspection) *entity.Inspection {
	out := *in
	out.Anomalies = make([]entity.Anomaly, len(in.Anomalies))
	for i, a := range in.Anomalies {
		out.Anomalies[i] = a.Clone()
	}
	out.AnomaliesLog = make([]entity.LogEntry, len(in.AnomaliesLog))
	for i, e := range in.AnomaliesLog {
		e.Box = e.Box.Clone()
		out.AnomaliesLog[i] = e
	}
	return &out
}
