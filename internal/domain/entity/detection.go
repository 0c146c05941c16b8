package entity

// Detection содержит сырой результат детектора, бокс в виде пары углов [x1, y1, x2, y2].
type Detection struct {
	Box        []float64 `json:"box"`
	ClassName  string    `json:"class"`
	Confidence float64   `json:"confidence"`
}
