package vision

import (
	"vision-inspector/internal/domain/port"
)

// GoCVDetector это локальный детектор на OpenCV: ищет контуры на снимке и отдаёт
// их ограничивающие прямоугольники в виде пар углов. Без тега сборки gocv
// все вызовы возвращают ошибку, и импорт детекций пропускается.
type GoCVDetector struct {
	MinAreaRatio          float64
	MaxAspectRatio        float64
	MinAspectRatio        float64
	MaxSide               int
	MinImageSide          int
	MinSharpnessEdgeRatio float64
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
	ClassName             string // класс, которым помечаются найденные области
}

// NewGoCVDetector создаёт детектор с порогами по умолчанию.
func NewGoCVDetector() *GoCVDetector {
	return &GoCVDetector{
		MinAreaRatio:          0.001,
		MinAspectRatio:        0.1,
		MaxAspectRatio:        10.0,
		MaxSide:               1024,
		MinImageSide:          400,
		MinSharpnessEdgeRatio: 0.008,
		MaxOverexposedRatio:   0.35,
		MaxUnderexposedRatio:  0.45,
		MaxGlareRatio:         0.08,
		ClassName:             "contour",
	}
}

var (
	_ port.Detector    = (*GoCVDetector)(nil)
	_ port.Highlighter = (*GoCVDetector)(nil)
)
