package entity

import "time"

// Inspection описывает осмотр оборудования со снимком, аномалиями и журналом их изменений.
type Inspection struct {
	IID               int64      `json:"iid"`               // числовой ключ в хранилище
	Number            string     `json:"number"`            // бизнес-номер вида I-000123
	TransformerNumber string     `json:"transformerNumber"` // номер осматриваемого трансформатора
	InspectionDate    string     `json:"inspectionDate"`    // дата осмотра, как её ввёл пользователь
	MaintenanceDate   string     `json:"maintenanceDate"`   // дата обслуживания
	Status            string     `json:"status"`
	Inspector         string     `json:"inspector"`
	RefImage          string     `json:"refImage"`     // URL эталонного снимка
	Anomalies         []Anomaly  `json:"anomalies"`    // текущие аномалии, порядок вставки = порядок показа
	AnomaliesLog      []LogEntry `json:"anomaliesLog"` // журнал изменений, только дописывается
	Version           int64      `json:"version"`      // версия документа для условной записи
	CreatedAt         time.Time  `json:"createdAt"`
}

// NewInspection содержит поля, которые задаёт пользователь при создании осмотра.
type NewInspection struct {
	Number            string
	TransformerNumber string
	InspectionDate    string
	MaintenanceDate   string
	Status            string
	Inspector         string
}
