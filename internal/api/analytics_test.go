package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqnguyen/wastenet-go/internal/datastore"
)

func seedRecords(t *testing.T, ds datastore.Interface, perLabel map[string]int, confidence float64) {
	t.Helper()

	for label, n := range perLabel {
		wasteType, err := ds.GetWasteTypeByLabel(label)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			require.NoError(t, ds.Save(&datastore.WasteRecord{
				TypeID:     wasteType.ID,
				Confidence: confidence,
			}))
		}
	}
}

func TestGetStats(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)
	seedRecords(t, ctrl.DS, map[string]int{"plastic": 4, "paper": 3, "metal": 2, "glass": 1}, 90)

	var stats map[string]any
	rec := getJSON(t, e, "/api/v2/stats", &stats)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.EqualValues(t, 10, stats["totalItems"])
	assert.EqualValues(t, 4, stats["plasticCount"])
	assert.EqualValues(t, 3, stats["paperCount"])
	assert.EqualValues(t, 2, stats["metalCount"])
	assert.EqualValues(t, 1, stats["glassCount"])
}

func TestGetStatsEmpty(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)

	var stats map[string]any
	rec := getJSON(t, e, "/api/v2/stats", &stats)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.EqualValues(t, 0, stats["totalItems"])
	assert.EqualValues(t, 0, stats["plasticCount"], "categories without records still appear")
}

func TestGetDistribution(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)
	seedRecords(t, ctrl.DS, map[string]int{"plastic": 3, "glass": 1}, 90)

	var distribution []DistributionEntry
	rec := getJSON(t, e, "/api/v2/distribution", &distribution)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, distribution, 4)

	byName := make(map[string]DistributionEntry, len(distribution))
	for _, entry := range distribution {
		byName[entry.Name] = entry
	}

	assert.EqualValues(t, 3, byName["Plastic"].Value)
	assert.Equal(t, 75, byName["Plastic"].Percentage)
	assert.Equal(t, "#3B82F6", byName["Plastic"].Color)

	assert.EqualValues(t, 1, byName["Glass"].Value)
	assert.Equal(t, 25, byName["Glass"].Percentage)

	assert.EqualValues(t, 0, byName["Paper"].Value)
	assert.Equal(t, 0, byName["Paper"].Percentage)
}

func TestGetDistributionEmpty(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)

	var distribution []DistributionEntry
	rec := getJSON(t, e, "/api/v2/distribution", &distribution)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, distribution, 4)
	for _, entry := range distribution {
		assert.Zero(t, entry.Value)
		assert.Zero(t, entry.Percentage, "an empty table must not divide by zero")
	}
}

func TestGetConfidence(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)

	metal, err := ctrl.DS.GetWasteTypeByLabel("metal")
	require.NoError(t, err)
	for _, confidence := range []float64{80, 90} {
		require.NoError(t, ctrl.DS.Save(&datastore.WasteRecord{TypeID: metal.ID, Confidence: confidence}))
	}

	var entries []ConfidenceEntry
	rec := getJSON(t, e, "/api/v2/confidence", &entries)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, entries, 4)

	byName := make(map[string]ConfidenceEntry, len(entries))
	for _, entry := range entries {
		byName[entry.Name] = entry
	}

	assert.Equal(t, 85, byName["Metal"].Confidence)
	assert.Equal(t, 0, byName["Plastic"].Confidence, "categories without records report zero")
}

func TestGetOverTime(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)
	seedRecords(t, ctrl.DS, map[string]int{"plastic": 2, "paper": 1}, 90)

	var buckets []map[string]any
	rec := getJSON(t, e, "/api/v2/overtime?days=7", &buckets)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, buckets, 7, "one bucket per day, zero filled")

	for _, bucket := range buckets {
		assert.Contains(t, bucket, "date")
		for _, label := range []string{"plastic", "paper", "metal", "glass", "total"} {
			assert.Contains(t, bucket, label)
		}
	}

	// today's records land in the last bucket
	today := buckets[len(buckets)-1]
	assert.EqualValues(t, 2, today["plastic"])
	assert.EqualValues(t, 1, today["paper"])
	assert.EqualValues(t, 3, today["total"])
}

func TestGetOverTimeDefaultsWindow(t *testing.T) {
	ctrl, e := newTestController(t)
	seedWasteTypes(t, ctrl.DS)

	tests := []struct {
		query string
		want  int
	}{
		{"", 7},
		{"?days=abc", 7},
		{"?days=0", 7},
		{"?days=30", 30},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("days %q", tt.query), func(t *testing.T) {
			var buckets []map[string]any
			rec := getJSON(t, e, "/api/v2/overtime"+tt.query, &buckets)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, buckets, tt.want)
		})
	}
}
