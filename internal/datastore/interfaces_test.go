package datastore

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&WasteType{}, &WasteRecord{}))

	return &DataStore{DB: db}
}

func seedTypes(t *testing.T, ds *DataStore) map[string]WasteType {
	t.Helper()

	types := []WasteType{
		{Label: "plastic", DisplayName: "Plastic", Color: "#3B82F6"},
		{Label: "paper", DisplayName: "Paper", Color: "#EAB308"},
		{Label: "metal", DisplayName: "Metal", Color: "#6B7280"},
		{Label: "glass", DisplayName: "Glass", Color: "#10B981"},
	}

	byLabel := make(map[string]WasteType, len(types))
	for i := range types {
		require.NoError(t, ds.EnsureWasteType(&types[i]))
		byLabel[types[i].Label] = types[i]
	}
	return byLabel
}

func TestSaveAssignsTimestamp(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	before := time.Now().Add(-time.Second)
	record := WasteRecord{TypeID: types["plastic"].ID, Confidence: 92.5}
	require.NoError(t, ds.Save(&record))

	assert.NotZero(t, record.ID)
	assert.False(t, record.Timestamp.Before(before), "timestamp should be assigned at insert time")

	got, err := ds.Get(fmt.Sprintf("%d", record.ID))
	require.NoError(t, err)
	assert.Equal(t, types["plastic"].ID, got.TypeID)
	assert.InDelta(t, 92.5, got.Confidence, 0.001)
	require.NotNil(t, got.Type)
	assert.Equal(t, "plastic", got.Type.Label)
}

func TestGetNotFound(t *testing.T) {
	ds := newTestStore(t)
	seedTypes(t, ds)

	_, err := ds.Get("999")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSearchRecordsNewestFirst(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	for i := 0; i < 5; i++ {
		require.NoError(t, ds.Save(&WasteRecord{TypeID: types["metal"].ID, Confidence: float64(80 + i)}))
	}

	records, total, err := ds.SearchRecords(RecordFilters{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, records, 5)

	// ids increase with insertion order, so newest first means ids descend
	for i := 1; i < len(records); i++ {
		assert.Greater(t, records[i-1].ID, records[i].ID, "records must be ordered newest first")
	}
}

func TestSearchRecordsLabelFilter(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["plastic"].ID, Confidence: 90}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["glass"].ID, Confidence: 91}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["paper"].ID, Confidence: 92}))

	records, total, err := ds.SearchRecords(RecordFilters{
		Labels: []string{"plastic", "glass"},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range records {
		require.NotNil(t, r.Type)
		assert.Contains(t, []string{"plastic", "glass"}, r.Type.Label)
	}
}

func TestSearchRecordsDateRange(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	now := time.Now()
	timestamps := []time.Time{
		now.AddDate(0, 0, -10),
		now.AddDate(0, 0, -3),
		now,
	}
	for _, ts := range timestamps {
		require.NoError(t, ds.Save(&WasteRecord{TypeID: types["metal"].ID, Confidence: 85, Timestamp: ts}))
	}

	start := now.AddDate(0, 0, -5).Format("2006-01-02")
	end := now.AddDate(0, 0, -1).Format("2006-01-02")

	records, total, err := ds.SearchRecords(RecordFilters{StartDate: start, EndDate: end, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.WithinDuration(t, now.AddDate(0, 0, -3), records[0].Timestamp, time.Minute)

	// end date is inclusive of the whole day
	records, total, err = ds.SearchRecords(RecordFilters{EndDate: now.Format("2006-01-02"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, records, 3)
}

func TestSearchRecordsBadDate(t *testing.T) {
	ds := newTestStore(t)
	seedTypes(t, ds)

	_, _, err := ds.SearchRecords(RecordFilters{StartDate: "23-08-2026", Limit: 10})
	assert.Error(t, err)
}

func TestDeleteWasteTypeCascades(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["glass"].ID, Confidence: 88}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["glass"].ID, Confidence: 89}))
	require.NoError(t, ds.Save(&WasteRecord{TypeID: types["paper"].ID, Confidence: 90}))

	require.NoError(t, ds.DeleteWasteType(types["glass"].ID))

	_, err := ds.GetWasteType(types["glass"].ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	count, err := ds.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "glass records must be removed with their type")

	records, _, err := ds.SearchRecords(RecordFilters{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types["paper"].ID, records[0].TypeID)
}

func TestDeleteWasteTypeNotFound(t *testing.T) {
	ds := newTestStore(t)
	seedTypes(t, ds)

	assert.ErrorIs(t, ds.DeleteWasteType(999), ErrRecordNotFound)
}

func TestEnsureWasteTypeIsIdempotent(t *testing.T) {
	ds := newTestStore(t)

	first := WasteType{Label: "plastic", DisplayName: "Plastic", Color: "#3B82F6"}
	require.NoError(t, ds.EnsureWasteType(&first))

	second := WasteType{Label: "plastic", DisplayName: "Changed", Color: "#000000"}
	require.NoError(t, ds.EnsureWasteType(&second))

	assert.Equal(t, first.ID, second.ID)

	types, err := ds.WasteTypes()
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Plastic", types[0].DisplayName, "existing row must not be overwritten")
}

func TestConcurrentSavesDoNotInterfere(t *testing.T) {
	ds := newTestStore(t)
	types := seedTypes(t, ds)

	// single connection serializes writes, concurrency exercises the API
	sqlDB, err := ds.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	perType := map[string]int{"plastic": 7, "paper": 5, "metal": 3, "glass": 2}

	var wg sync.WaitGroup
	for label, n := range perType {
		wg.Add(1)
		go func(typeID uint, n int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				_ = ds.Save(&WasteRecord{TypeID: typeID, Confidence: 80})
			}
		}(types[label].ID, n)
	}
	wg.Wait()

	counts, err := ds.CountsByType()
	require.NoError(t, err)
	for _, tc := range counts {
		assert.Equal(t, int64(perType[tc.Label]), tc.Count, "count for %s", tc.Label)
	}
}
