package port

import (
	"context"

	"vision-inspector/internal/domain/entity"
)

// DetectionRequest параметры одного вызова детектора
type DetectionRequest struct {
	Image        []byte  // исходные байты изображения
	Threshold    float64 // порог уверенности, [0, 1]
	IoUThreshold float64 // порог подавления перекрытий, [0, 1]
}

// DetectionResponse ответ детектора: боксы в виде пар углов
type DetectionResponse struct {
	Detections []entity.Detection
	ImageURL   string // необязательный URL изображения от детектора
}

// Detector интерфейс внешнего детектора аномалий
type Detector interface {
	// Detect анализирует изображение и возвращает кандидатов.
	// Ошибки транспорта и разбора оборачивают entity.ErrGateway.
	Detect(ctx context.Context, req DetectionRequest) (*DetectionResponse, error)
}

// Highlighter рисует боксы аномалий поверх снимка
type Highlighter interface {
	Highlight(imageData []byte, anomalies []entity.Anomaly) ([]byte, error)
}
