package entity

import "encoding/json"

// Provenance указывает, кто создал аномалию.
type Provenance string

const (
	ProvenanceAI   Provenance = "AI"   // автоматический детектор
	ProvenanceUser Provenance = "User" // человек-проверяющий
)

// Valid сообщает, является ли значение известным источником.
func (p Provenance) Valid() bool {
	return p == ProvenanceAI || p == ProvenanceUser
}

// Anomaly представляет обнаруженную область на снимке вместе с источником её появления.
type Anomaly struct {
	ID         string     `json:"id"`
	Box        Box        `json:"box"`
	ClassName  string     `json:"class"`
	Confidence *float64   `json:"confidence,omitempty"`
	MadeBy     Provenance `json:"madeBy"`
}

// Clone возвращает глубокую копию записи.
func (a Anomaly) Clone() Anomaly {
	out := a
	out.Box = a.Box.Clone()
	if a.Confidence != nil {
		c := *a.Confidence
		out.Confidence = &c
	}
	return out
}

// UnmarshalJSON принимает и старый ключ "className", которым писали ручные аномалии.
func (a *Anomaly) UnmarshalJSON(data []byte) error {
	type plain Anomaly
	var raw struct {
		plain
		LegacyClassName string `json:"className"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Anomaly(raw.plain)
	if a.ClassName == "" {
		a.ClassName = raw.LegacyClassName
	}
	return nil
}

// Float возвращает указатель на значение, удобно для необязательной уверенности.
func Float(v float64) *float64 {
	return &v
}
