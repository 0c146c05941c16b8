package vision

import (
	"sort"

	"vision-inspector/internal/domain/entity"
)

// filterDetections отбрасывает кандидатов ниже порога уверенности и подавляет
// перекрытия: из пары с IoU выше iouThreshold остаётся более уверенный.
func filterDetections(in []entity.Detection, threshold, iouThreshold float64) []entity.Detection {
	kept := make([]entity.Detection, 0, len(in))
	for _, d := range in {
		if len(d.Box) == 4 && d.Confidence >= threshold {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })

	out := make([]entity.Detection, 0, len(kept))
	for _, d := range kept {
		overlaps := false
		for _, o := range out {
			if iou(d.Box, o.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, d)
		}
	}
	return out
}

// iou считает отношение площади пересечения к площади объединения двух боксов [x1, y1, x2, y2].
func iou(a, b []float64) float64 {
	ix := min(a[2], b[2]) - max(a[0], b[0])
	iy := min(a[3], b[3]) - max(a[1], b[1])
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := (a[2]-a[0])*(a[3]-a[1]) + (b[2]-b[0])*(b[3]-b[1]) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
