// analytics.go: aggregate projections consumed by the dashboard.
package datastore

import (
	"fmt"
	"time"
)

// CountsByType returns the record count for every waste type, including
// types with zero records, ordered by type ID.
func (ds *DataStore) CountsByType() ([]TypeCount, error) {
	var counts []TypeCount
	err := ds.DB.Model(&WasteType{}).
		Select("waste_types.id AS type_id, waste_types.label, waste_types.display_name, waste_types.color, COUNT(waste_records.id) AS count").
		Joins("LEFT JOIN waste_records ON waste_records.type_id = waste_types.id").
		Group("waste_types.id, waste_types.label, waste_types.display_name, waste_types.color").
		Order("waste_types.id ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("counting records by type: %w", err)
	}
	return counts, nil
}

// AvgConfidenceByType returns the average confidence per waste type. Types
// without records report zero.
func (ds *DataStore) AvgConfidenceByType() ([]TypeConfidence, error) {
	var confidences []TypeConfidence
	err := ds.DB.Model(&WasteType{}).
		Select("waste_types.id AS type_id, waste_types.label, waste_types.display_name, waste_types.color, COALESCE(AVG(waste_records.confidence), 0) AS avg_confidence").
		Joins("LEFT JOIN waste_records ON waste_records.type_id = waste_types.id").
		Group("waste_types.id, waste_types.label, waste_types.display_name, waste_types.color").
		Order("waste_types.id ASC").
		Scan(&confidences).Error
	if err != nil {
		return nil, fmt.Errorf("averaging confidence by type: %w", err)
	}
	return confidences, nil
}

// dateExpr returns the SQL expression truncating the record timestamp to a
// YYYY-MM-DD day for the active dialect.
func (ds *DataStore) dateExpr() string {
	switch ds.DB.Dialector.Name() {
	case "mysql":
		return "DATE_FORMAT(timestamp, '%Y-%m-%d')"
	default: // sqlite
		return "strftime('%Y-%m-%d', timestamp, 'localtime')"
	}
}

// CountsOverTime returns per-day per-type record counts for timestamps in
// [start, end). Days without records produce no rows, callers zero-fill.
func (ds *DataStore) CountsOverTime(start, end time.Time) ([]DailyTypeCount, error) {
	dateExpr := ds.dateExpr()

	var counts []DailyTypeCount
	err := ds.DB.Model(&WasteRecord{}).
		Select(fmt.Sprintf("%s AS day, type_id, COUNT(id) AS count", dateExpr)).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Group(fmt.Sprintf("%s, type_id", dateExpr)).
		Order("day ASC, type_id ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("counting records over time: %w", err)
	}
	return counts, nil
}
