//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"gocv.io/x/gocv"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

// Detect ищет контуры и возвращает их прямоугольники в координатах исходного снимка.
// Уверенность равна доле граничных пикселей внутри прямоугольника.
func (d *GoCVDetector) Detect(ctx context.Context, req port.DetectionRequest) (*port.DetectionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGateway, err)
	}
	mat, err := decodeToMat(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGateway, err)
	}
	defer mat.Close()

	if err := d.checkImageQuality(mat, "image"); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGateway, err)
	}

	// Приводим изображение к стандартному размеру для стабильных порогов.
	scale := 1.0
	if mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide {
		scale = float64(d.MaxSide) / float64(max(mat.Cols(), mat.Rows()))
		newW := int(float64(mat.Cols()) * scale)
		newH := int(float64(mat.Rows()) * scale)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := int(float64(mat.Cols()*mat.Rows()) * d.MinAreaRatio)
	detections := make([]entity.Detection, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		area := rect.Dx() * rect.Dy()
		if area < minArea || rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < d.MinAspectRatio || aspect > d.MaxAspectRatio {
			continue
		}

		region := edges.Region(rect)
		confidence := ratioOfMask(region)
		region.Close()

		detections = append(detections, entity.Detection{
			Box: []float64{
				float64(rect.Min.X) / scale,
				float64(rect.Min.Y) / scale,
				float64(rect.Max.X) / scale,
				float64(rect.Max.Y) / scale,
			},
			ClassName:  d.ClassName,
			Confidence: confidence,
		})
	}

	return &port.DetectionResponse{
		Detections: filterDetections(detections, req.Threshold, req.IoUThreshold),
	}, nil
}

// Highlight рисует прямоугольники аномалий и возвращает новую картинку в JPEG.
// Цвет зависит от источника: AI зелёный, User синий.
func (d *GoCVDetector) Highlight(imageData []byte, anomalies []entity.Anomaly) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	for _, a := range anomalies {
		x1, y1, x2, y2 := a.Box.Corners()
		rect := image.Rect(int(x1), int(y1), int(x2), int(y2))
		c := green
		if a.MadeBy == entity.ProvenanceUser {
			c = blue
		}
		gocv.Rectangle(&mat, rect, c, 2)
		if a.ClassName != "" {
			gocv.PutText(&mat, a.ClassName, image.Pt(rect.Min.X, max(rect.Min.Y-4, 12)),
				gocv.FontHersheySimplex, 0.5, c, 1)
		}
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func (d *GoCVDetector) checkImageQuality(mat gocv.Mat, label string) error {
	if mat.Empty() {
		return fmt.Errorf("quality gate failed for %s: empty image", label)
	}

	if mat.Cols() < d.MinImageSide || mat.Rows() < d.MinImageSide {
		return fmt.Errorf("quality gate failed for %s: image is too small (%dx%d)", label, mat.Cols(), mat.Rows())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 160)
	if r := ratioOfMask(edges); r < d.MinSharpnessEdgeRatio {
		return fmt.Errorf("quality gate failed for %s: image is blurry (edge_ratio=%.4f)", label, r)
	}

	bright := gocv.NewMat()
	defer bright.Close()
	gocv.Threshold(gray, &bright, 250, 255, gocv.ThresholdBinary)
	if r := ratioOfMask(bright); r > d.MaxOverexposedRatio {
		return fmt.Errorf("quality gate failed for %s: overexposed image (ratio=%.4f)", label, r)
	}

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, 20, 255, gocv.ThresholdBinaryInv)
	if r := ratioOfMask(dark); r > d.MaxUnderexposedRatio {
		return fmt.Errorf("quality gate failed for %s: underexposed image (ratio=%.4f)", label, r)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return fmt.Errorf("quality gate failed for %s: invalid hsv channels", label)
	}

	lowSat := gocv.NewMat()
	defer lowSat.Close()
	gocv.Threshold(channels[1], &lowSat, 40, 255, gocv.ThresholdBinaryInv)

	highVal := gocv.NewMat()
	defer highVal.Close()
	gocv.Threshold(channels[2], &highVal, 245, 255, gocv.ThresholdBinary)

	glare := gocv.NewMat()
	defer glare.Close()
	gocv.BitwiseAnd(lowSat, highVal, &glare)
	if r := ratioOfMask(glare); r > d.MaxGlareRatio {
		return fmt.Errorf("quality gate failed for %s: too much glare (ratio=%.4f)", label, r)
	}

	return nil
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}
