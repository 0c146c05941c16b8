package entity

import (
	"fmt"
	"math"
)

// Box хранит каноническую геометрию аномалии [center_x, center_y, width, height].
type Box []float64

// NormalizeBox переводит бокс детектора [x1, y1, x2, y2] в канонический вид
// [center_x, center_y, width, height]. Вход другой длины возвращается как есть:
// повторно к уже каноническим данным функцию применять нельзя.
func NormalizeBox(box []float64) []float64 {
	if len(box) != 4 {
		return box
	}

	x1, y1, x2, y2 := box[0], box[1], box[2], box[3]
	return []float64{
		(x1 + x2) / 2,
		(y1 + y2) / 2,
		math.Abs(x2 - x1),
		math.Abs(y2 - y1),
	}
}

// ValidateBox проверяет каноническую геометрию: ровно 4 конечных числа,
// неотрицательные ширина и высота.
func ValidateBox(box []float64) error {
	if len(box) != 4 {
		return fmt.Errorf("%w: box must have 4 values, got %d", ErrValidation, len(box))
	}
	for i, v := range box {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: box[%d] is not finite", ErrValidation, i)
		}
	}
	if box[2] < 0 || box[3] < 0 {
		return fmt.Errorf("%w: box width and height must be non-negative", ErrValidation)
	}
	return nil
}

func (b Box) CenterX() float64 { return b.at(0) }
func (b Box) CenterY() float64 { return b.at(1) }
func (b Box) Width() float64   { return b.at(2) }
func (b Box) Height() float64  { return b.at(3) }

// Corners возвращает углы (x1, y1, x2, y2), обратно к NormalizeBox.
func (b Box) Corners() (x1, y1, x2, y2 float64) {
	cx, cy := b.CenterX(), b.CenterY()
	hw, hh := b.Width()/2, b.Height()/2
	return cx - hw, cy - hh, cx + hw, cy + hh
}

func (b Box) at(i int) float64 {
	if i >= len(b) {
		return 0
	}
	return b[i]
}

// Clone возвращает независимую копию бокса.
func (b Box) Clone() Box {
	if b == nil {
		return nil
	}
	out := make(Box, len(b))
	copy(out, b)
	return out
}
