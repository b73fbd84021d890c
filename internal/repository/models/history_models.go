package models

import "time"

// HistoryDocument is the on-disk shape of the JSON history file. Unknown
// fields are ignored on read so older binaries can open newer files.
type HistoryDocument struct {
	URLs map[string][]MeasurementRecord `json:"urls"`
}

// MeasurementRecord is one persisted observation inside HistoryDocument.
type MeasurementRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Scores    map[string]int `json:"scores"`
}

// ScoreRow is one sqlite row: a single category score of one measurement.
// Seq is the measurement's position within its URL sequence, oldest first.
type ScoreRow struct {
	URL        string
	Seq        int
	RecordedAt time.Time
	Category   string
	Score      int
}
