package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsByTypeIncludesEmptyTypes(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["plastic"].ID, Confidence: 90}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["plastic"].ID, Confidence: 91}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["glass"].ID, Confidence: 92}))

	counts, err := ds.CountsByType()
	require.NoError(t, err)
	require.Len(t, counts, 4, "every type appears even with zero records")

	byLabel := make(map[string]TypeCount, len(counts))
	for _, tc := range counts {
		byLabel[tc.Label] = tc
	}

	assert.Equal(t, int64(2), byLabel["plastic"].Count)
	assert.Equal(t, int64(1), byLabel["glass"].Count)
	assert.Equal(t, int64(0), byLabel["paper"].Count)
	assert.Equal(t, int64(0), byLabel["metal"].Count)
	assert.Equal(t, "#6B7280", byLabel["metal"].Color, "projection carries the display fields")
}

func TestAvgConfidenceByType(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	for _, confidence := range []float64{70, 80, 90} {
		require.NoError(t, ds.Save(&WasteRecord{TypeID: types["paper"].ID, Confidence: confidence}))
	}

	confidences, err := ds.AvgConfidenceByType()
	require.NoError(t, err)
	require.Len(t, confidences, 4)

	byLabel := make(map[string]TypeConfidence, len(confidences))
	for _, tc := range confidences {
		byLabel[tc.Label] = tc
	}

	assert.InDelta(t, 80, byLabel["paper"].AvgConfidence, 0.001)
	assert.Zero(t, byLabel["glass"].AvgConfidence, "no records averages to zero, not NULL")
}

func TestCountsOverTime(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.Local)

	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["plastic"].ID, Confidence: 90, Timestamp: today}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["plastic"].ID, Confidence: 90, Timestamp: today}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["metal"].ID, Confidence: 90, Timestamp: today.AddDate(0, 0, -2)}))
	// outside the window
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["metal"].ID, Confidence: 90, Timestamp: today.AddDate(0, 0, -10)}))

	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -7)

	counts, err := ds.CountsOverTime(start, end)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byDay := make(map[string]DailyTypeCount, len(counts))
	for _, dc := range counts {
		byDay[dc.Day] = dc
	}

	todayKey := today.Format("2006-01-02")
	require.Contains(t, byDay, todayKey)
	assert.Equal(t, types["plastic"].ID, byDay[todayKey].TypeID)
	assert.Equal(t, int64(2), byDay[todayKey].Count)

	beforeKey := today.AddDate(0, 0, -2).Format("2006-01-02")
	require.Contains(t, byDay, beforeKey)
	assert.Equal(t, int64(1), byDay[beforeKey].Count)
}
