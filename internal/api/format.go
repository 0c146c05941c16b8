package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vision-inspector/internal/domain/entity"
)

const maxLogLines = 20

// parseBox разбирает четыре числа cx cy w h
func parseBox(fields []string) (entity.Box, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: нужно четыре числа: cx cy w h", entity.ErrValidation)
	}
	box := make(entity.Box, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.ReplaceAll(fields[i], ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q не число", entity.ErrValidation, fields[i])
		}
		box[i] = v
	}
	return box, nil
}

// parseAddArgs: cx cy w h class...
func parseAddArgs(args string) (entity.Anomaly, error) {
	fields := strings.Fields(args)
	box, err := parseBox(fields)
	if err != nil {
		return entity.Anomaly{}, err
	}
	if len(fields) < 5 {
		return entity.Anomaly{}, fmt.Errorf("%w: укажите класс аномалии", entity.ErrValidation)
	}
	return entity.Anomaly{
		Box:       box,
		ClassName: strings.Join(fields[4:], " "),
		MadeBy:    entity.ProvenanceUser,
	}, nil
}

// parseEditArgs: id cx cy w h [class...]
func parseEditArgs(args string) (string, entity.Anomaly, error) {
	fields := strings.Fields(args)
	if len(fields) < 5 {
		return "", entity.Anomaly{}, fmt.Errorf("%w: формат: /edit <id> cx cy w h [класс]", entity.ErrValidation)
	}
	box, err := parseBox(fields[1:])
	if err != nil {
		return "", entity.Anomaly{}, err
	}
	return fields[0], entity.Anomaly{Box: box, ClassName: strings.Join(fields[5:], " ")}, nil
}

func parseIID(args string) (int64, error) {
	iid, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || iid <= 0 {
		return 0, fmt.Errorf("%w: нужен номер осмотра (IID)", entity.ErrValidation)
	}
	return iid, nil
}

func parseThreshold(args string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(args), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: порог — число от 0 до 1", entity.ErrValidation)
	}
	return v, nil
}

func formatBox(b entity.Box) string {
	return fmt.Sprintf("(%.1f, %.1f) %.1f×%.1f", b.CenterX(), b.CenterY(), b.Width(), b.Height())
}

func formatAnomalies(anomalies []entity.Anomaly) string {
	if len(anomalies) == 0 {
		return msgNoAnomalies
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Аномалий: %d\n", len(anomalies))
	for i, a := range anomalies {
		class := a.ClassName
		if class == "" {
			class = "без класса"
		}
		fmt.Fprintf(&sb, "\n%d. %s [%s] %s", i+1, class, a.MadeBy, formatBox(a.Box))
		if a.Confidence != nil {
			fmt.Fprintf(&sb, " %.0f%%", *a.Confidence*100)
		}
		fmt.Fprintf(&sb, "\n   id: %s", a.ID)
	}
	return sb.String()
}

var actionLabels = map[entity.Action]string{
	entity.ActionAdd:    "➕",
	entity.ActionEdit:   "✏️",
	entity.ActionDelete: "🗑",
}

// formatLog показывает последние записи журнала, старые сверху
func formatLog(log []entity.LogEntry) string {
	if len(log) == 0 {
		return msgEmptyLog
	}

	start := 0
	if len(log) > maxLogLines {
		start = len(log) - maxLogLines
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 Журнал: %d записей", len(log))
	if start > 0 {
		fmt.Fprintf(&sb, ", последние %d", maxLogLines)
	}
	sb.WriteString("\n")
	for _, e := range log[start:] {
		fmt.Fprintf(&sb, "\n%s %s %s %s [%s] %s",
			e.Timestamp, actionLabels[e.Action], e.ClassName, formatBox(e.Box), e.MadeBy, shortID(e.ID))
	}
	return sb.String()
}

func formatInspection(insp *entity.Inspection) string {
	return fmt.Sprintf("📋 Осмотр %s (IID %d)\nТрансформатор: %s\nАномалий: %d",
		insp.Number, insp.IID, orDash(insp.TransformerNumber), len(insp.Anomalies))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// errorMessage переводит ошибку сервиса в ответ пользователю
func errorMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return "🔎 Не найдено: " + err.Error()
	case errors.Is(err, entity.ErrValidation):
		return "⚠️ Некорректные данные: " + err.Error()
	case errors.Is(err, entity.ErrConflict):
		return "⏳ Осмотр одновременно меняют другие пользователи, повторите попытку."
	case errors.Is(err, entity.ErrExhaustedRetries):
		return "⚠️ Не удалось подобрать свободный номер осмотра."
	default:
		return msgInternalError
	}
}
