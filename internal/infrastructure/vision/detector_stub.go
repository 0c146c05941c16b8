//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"fmt"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

var errNoOpenCV = errors.New("gocv build tag is not enabled")

// Detect возвращает ошибку детектора, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, req port.DetectionRequest) (*port.DetectionResponse, error) {
	return nil, fmt.Errorf("%w: %v", entity.ErrGateway, errNoOpenCV)
}

// Highlight возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Highlight(imageData []byte, anomalies []entity.Anomaly) ([]byte, error) {
	return nil, errNoOpenCV
}
