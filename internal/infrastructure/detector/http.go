package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

const maxErrorBody = 512

type request struct {
	Image        string  `json:"image"`
	Threshold    float64 `json:"threshold"`
	IoUThreshold float64 `json:"iou_threshold"`
}

type response struct {
	ImageURL   string             `json:"imageUrl"`
	Detections []entity.Detection `json:"detections"`
}

// HTTPDetector вызывает внешний сервис детекции: POST JSON с изображением в base64.
type HTTPDetector struct {
	url    string
	client *http.Client
}

// NewHTTPDetector создаёт клиента. Таймаут вызова задаёт контекст. При client == nil
// создаётся http.Client с таймаутом timeout.
func NewHTTPDetector(url string, client *http.Client, timeout time.Duration) *HTTPDetector {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPDetector{url: url, client: client}
}

// Detect отправляет изображение и разбирает ответ. Любая ошибка оборачивает entity.ErrGateway.
func (d *HTTPDetector) Detect(ctx context.Context, req port.DetectionRequest) (*port.DetectionResponse, error) {
	body, err := json.Marshal(request{
		Image:        base64.StdEncoding.EncodeToString(req.Image),
		Threshold:    req.Threshold,
		IoUThreshold: req.IoUThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", entity.ErrGateway, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", entity.ErrGateway, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: detector returned %d: %s", entity.ErrGateway, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", entity.ErrGateway, err)
	}

	return &port.DetectionResponse{Detections: out.Detections, ImageURL: out.ImageURL}, nil
}

var _ port.Detector = (*HTTPDetector)(nil)
