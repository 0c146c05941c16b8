package entity

import "time"

// Action задаёт вид изменения аномалии в журнале.
type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// TimestampLayout задаёт фиксированный текстовый формат времени записей журнала (UTC, миллисекунды).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// LogEntry представляет неизменяемую запись журнала аномалий.
type LogEntry struct {
	ID         string     `json:"id"`
	Box        Box        `json:"box"`
	Confidence float64    `json:"confidence"`
	ClassName  string     `json:"class"`
	Timestamp  string     `json:"timestamp"`
	MadeBy     Provenance `json:"madeBy"`
	Action     Action     `json:"action"`
}

// Time разбирает метку времени записи. Нулевое время, если формат не распознан.
func (e LogEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTimestamp приводит время к формату журнала.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
