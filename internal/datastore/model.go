// model.go this code defines the data model for the application
package datastore

import "time"

// WasteType represents one of the fixed waste categories items are sorted
// into (plastic, paper, metal, glass).
type WasteType struct {
	ID          uint   `gorm:"primaryKey"`
	Label       string `gorm:"uniqueIndex;size:50"` // machine readable label
	DisplayName string `gorm:"size:100"`
	Color       string `gorm:"size:9"` // hex color for the dashboard, #RRGGBB
}

// WasteRecord represents a single classified item detection. Records are
// immutable after creation; deleting a WasteType removes its records.
type WasteRecord struct {
	ID         uint       `gorm:"primaryKey"`
	TypeID     uint       `gorm:"index;not null"`
	Type       *WasteType `gorm:"foreignKey:TypeID;constraint:OnDelete:CASCADE"`
	Confidence float64    // percent, 0-100
	Timestamp  time.Time  `gorm:"autoCreateTime;index:idx_waste_records_timestamp"`
	ImagePath  string     // stored image file name, empty when none attached
}

// TypeCount is a per-category record count projection.
type TypeCount struct {
	TypeID      uint
	Label       string
	DisplayName string
	Color       string
	Count       int64
}

// TypeConfidence is a per-category average confidence projection.
type TypeConfidence struct {
	TypeID        uint
	Label         string
	DisplayName   string
	Color         string
	AvgConfidence float64
}

// DailyTypeCount is a per-day per-category count used by the over-time
// dashboard chart.
type DailyTypeCount struct {
	Day    string // YYYY-MM-DD
	TypeID uint
	Count  int64
}
