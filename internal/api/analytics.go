// internal/api/analytics.go: read-only aggregate endpoints for the
// dashboard charts.
package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

func (c *Controller) initAnalyticsRoutes() {
	c.Group.GET("/stats", c.GetStats)
	c.Group.GET("/distribution", c.GetDistribution)
	c.Group.GET("/confidence", c.GetConfidence)
	c.Group.GET("/overtime", c.GetOverTime)
}

// GetStats returns the total record count and a per-label count map, e.g.
// {"totalItems": 10, "plasticCount": 4, ...}.
func (c *Controller) GetStats(ctx echo.Context) error {
	counts, err := c.DS.CountsByType()
	if err != nil {
		return c.serverError(ctx, err, "counting records by type")
	}

	var total int64
	stats := map[string]any{}
	for _, tc := range counts {
		stats[tc.Label+"Count"] = tc.Count
		total += tc.Count
	}
	stats["totalItems"] = total

	return ctx.JSON(http.StatusOK, stats)
}

// DistributionEntry is one slice of the category distribution chart.
type DistributionEntry struct {
	Name       string `json:"name"`
	Value      int64  `json:"value"`
	Color      string `json:"color"`
	Percentage int    `json:"percentage"`
}

// GetDistribution returns per-category counts with share percentages.
func (c *Controller) GetDistribution(ctx echo.Context) error {
	counts, err := c.DS.CountsByType()
	if err != nil {
		return c.serverError(ctx, err, "counting records by type")
	}

	var total int64
	for _, tc := range counts {
		total += tc.Count
	}

	distribution := make([]DistributionEntry, 0, len(counts))
	for _, tc := range counts {
		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(tc.Count) / float64(total) * 100))
		}
		distribution = append(distribution, DistributionEntry{
			Name:       tc.DisplayName,
			Value:      tc.Count,
			Color:      tc.Color,
			Percentage: percentage,
		})
	}

	return ctx.JSON(http.StatusOK, distribution)
}

// ConfidenceEntry is one bar of the average confidence chart.
type ConfidenceEntry struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
	Color      string `json:"color"`
}

// GetConfidence returns the average confidence per category, rounded to
// whole percent; categories without records report zero.
func (c *Controller) GetConfidence(ctx echo.Context) error {
	confidences, err := c.DS.AvgConfidenceByType()
	if err != nil {
		return c.serverError(ctx, err, "averaging confidence by type")
	}

	entries := make([]ConfidenceEntry, 0, len(confidences))
	for _, tc := range confidences {
		entries = append(entries, ConfidenceEntry{
			Name:       tc.DisplayName,
			Confidence: int(math.Round(tc.AvgConfidence)),
			Color:      tc.Color,
		})
	}

	return ctx.JSON(http.StatusOK, entries)
}

// GetOverTime returns per-day per-category counts for the trailing window,
// zero-filled so every day and label appears.
func (c *Controller) GetOverTime(ctx echo.Context) error {
	days, err := strconv.Atoi(ctx.QueryParam("days"))
	if err != nil || days <= 0 {
		days = 7
	}

	types, err := c.DS.WasteTypes()
	if err != nil {
		return c.serverError(ctx, err, "getting waste types")
	}

	now := time.Now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	counts, err := c.DS.CountsOverTime(start, end)
	if err != nil {
		return c.serverError(ctx, err, "counting records over time")
	}

	labelsByTypeID := make(map[uint]string, len(types))
	for _, t := range types {
		labelsByTypeID[t.ID] = t.Label
	}

	// zero-filled day buckets in chronological order
	dayIndex := make(map[string]int, days)
	result := make([]map[string]any, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		bucket := map[string]any{
			"date":  day.Format("Jan 02"),
			"total": int64(0),
		}
		for _, t := range types {
			bucket[t.Label] = int64(0)
		}
		dayIndex[day.Format("2006-01-02")] = i
		result = append(result, bucket)
	}

	for _, dc := range counts {
		idx, ok := dayIndex[dc.Day]
		if !ok {
			continue
		}
		label, ok := labelsByTypeID[dc.TypeID]
		if !ok {
			continue
		}
		bucket := result[idx]
		bucket[label] = dc.Count
		bucket["total"] = bucket["total"].(int64) + dc.Count
	}

	return ctx.JSON(http.StatusOK, result)
}
