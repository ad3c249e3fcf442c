// internal/api/records.go
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hqnguyen/wastenet-go/internal/datastore"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// initRecordRoutes registers the waste record endpoints
func (c *Controller) initRecordRoutes() {
	c.Group.POST("/records", c.CreateRecord)
	c.Group.GET("/records", c.GetRecords)
	c.Group.GET("/records/recent", c.GetRecentRecords)
	c.Group.GET("/records/:id", c.GetRecord)
}

// RecordResponse represents a waste record in API responses. Image is an
// absolute URL to the stored image or null when none was attached.
type RecordResponse struct {
	ID         uint      `json:"id"`
	TypeID     uint      `json:"type_id"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Image      *string   `json:"image"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data        []RecordResponse `json:"data"`
	Total       int64            `json:"total"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
	CurrentPage int              `json:"current_page"`
	TotalPages  int              `json:"total_pages"`
}

// recordResponse shapes a datastore record for the API, qualifying the
// image URL with the request host.
func (c *Controller) recordResponse(ctx echo.Context, record *datastore.WasteRecord) RecordResponse {
	resp := RecordResponse{
		ID:         record.ID,
		TypeID:     record.TypeID,
		Confidence: record.Confidence,
		Timestamp:  record.Timestamp,
	}
	if record.Type != nil {
		resp.Type = record.Type.Label
	}
	if record.ImagePath != "" {
		url := fmt.Sprintf("%s://%s/media/waste_images/%s",
			ctx.Scheme(), ctx.Request().Host, record.ImagePath)
		resp.Image = &url
	}
	return resp
}

// CreateRecord handles the multipart detection submission from the edge
// device. On success it persists the record, answers 201 and hands the
// serialized record to the notifier; fan-out failures never affect the
// response.
func (c *Controller) CreateRecord(ctx echo.Context) error {
	fieldErrors := map[string]string{}

	typeIDStr := ctx.FormValue("type_id")
	confidenceStr := ctx.FormValue("confidence")

	var typeID uint64
	var err error
	if typeIDStr == "" {
		fieldErrors["type_id"] = "this field is required"
	} else if typeID, err = strconv.ParseUint(typeIDStr, 10, 32); err != nil {
		fieldErrors["type_id"] = "a valid integer is required"
	}

	var confidence float64
	if confidenceStr == "" {
		fieldErrors["confidence"] = "this field is required"
	} else if confidence, err = strconv.ParseFloat(confidenceStr, 64); err != nil || math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		fieldErrors["confidence"] = "a valid number is required"
	} else if confidence < 0 || confidence > 100 {
		fieldErrors["confidence"] = "confidence must be between 0 and 100"
	}

	var wasteType datastore.WasteType
	if _, ok := fieldErrors["type_id"]; !ok {
		wasteType, err = c.DS.GetWasteType(uint(typeID))
		if err != nil {
			if errors.Is(err, datastore.ErrRecordNotFound) {
				fieldErrors["type_id"] = fmt.Sprintf("waste type with id %d does not exist", typeID)
			} else {
				return c.serverError(ctx, err, "looking up waste type")
			}
		}
	}

	if len(fieldErrors) > 0 {
		if c.metrics != nil {
			for field := range fieldErrors {
				c.metrics.IngestRejected.WithLabelValues(field).Inc()
			}
		}
		c.logIngestRejected(ctx, fieldErrors)
		return ctx.JSON(http.StatusBadRequest, fieldErrors)
	}

	// optional image attachment, stored under a generated unique name
	imagePath := ""
	if file, err := ctx.FormFile("image"); err == nil && file != nil {
		imagePath, err = c.saveImage(file)
		if err != nil {
			return c.serverError(ctx, err, "storing detection image")
		}
	}

	record := datastore.WasteRecord{
		TypeID:     wasteType.ID,
		Type:       &wasteType,
		Confidence: confidence,
		ImagePath:  imagePath,
	}
	if err := c.DS.Save(&record); err != nil {
		return c.serverError(ctx, err, "saving waste record")
	}

	resp := c.recordResponse(ctx, &record)

	if c.metrics != nil {
		c.metrics.RecordsIngested.WithLabelValues(wasteType.Label).Inc()
	}
	if c.apiLogger != nil {
		c.apiLogger.Info("waste record created",
			"id", record.ID, "type", wasteType.Label, "confidence", record.Confidence,
			"has_image", imagePath != "")
	}

	c.notifyDetection(resp)

	return ctx.JSON(http.StatusCreated, resp)
}

// notifyDetection fans the persisted record out to push subscribers and,
// when enabled, publishes it to MQTT. Both are best effort.
func (c *Controller) notifyDetection(resp RecordResponse) {
	event := Event{Type: "update", Data: resp}
	delivered, detached := c.sseManager.Broadcast(&event)
	if c.metrics != nil {
		c.metrics.FanoutSent.Add(float64(delivered))
		c.metrics.FanoutFailed.Add(float64(detached))
	}

	if c.mqttClient != nil && c.Settings.MQTT.Enabled {
		payload, err := json.Marshal(resp)
		if err == nil {
			err = c.mqttClient.Publish(c.ctx, c.Settings.MQTT.Topic, string(payload))
		}
		if err != nil && c.apiLogger != nil {
			c.apiLogger.Error("MQTT publication failed", "error", err, "record_id", resp.ID)
		}
	}
}

// GetRecords lists records newest first with optional filters: a comma
// separated set of waste type labels and an inclusive date range.
func (c *Controller) GetRecords(ctx echo.Context) error {
	fieldErrors := map[string]string{}

	filters := datastore.RecordFilters{
		StartDate: ctx.QueryParam("start_date"),
		EndDate:   ctx.QueryParam("end_date"),
	}

	if raw := ctx.QueryParam("waste_types"); raw != "" {
		for _, label := range strings.Split(raw, ",") {
			if label = strings.TrimSpace(label); label != "" {
				filters.Labels = append(filters.Labels, label)
			}
		}
	}

	for field, value := range map[string]string{
		"start_date": filters.StartDate,
		"end_date":   filters.EndDate,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			fieldErrors[field] = "date must be in YYYY-MM-DD format"
		}
	}
	if len(fieldErrors) > 0 {
		return ctx.JSON(http.StatusBadRequest, fieldErrors)
	}

	filters.Limit = parseLimit(ctx.QueryParam("limit"))
	filters.Offset, _ = strconv.Atoi(ctx.QueryParam("offset"))
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	records, total, err := c.DS.SearchRecords(filters)
	if err != nil {
		return c.serverError(ctx, err, "searching records")
	}

	data := make([]RecordResponse, 0, len(records))
	for i := range records {
		data = append(data, c.recordResponse(ctx, &records[i]))
	}

	totalPages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))
	return ctx.JSON(http.StatusOK, PaginatedResponse{
		Data:        data,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
		CurrentPage: filters.Offset/filters.Limit + 1,
		TotalPages:  totalPages,
	})
}

// GetRecentRecords returns the newest records as a plain array.
func (c *Controller) GetRecentRecords(ctx echo.Context) error {
	limit := parseLimit(ctx.QueryParam("limit"))

	records, err := c.DS.GetRecentRecords(limit)
	if err != nil {
		return c.serverError(ctx, err, "getting recent records")
	}

	data := make([]RecordResponse, 0, len(records))
	for i := range records {
		data = append(data, c.recordResponse(ctx, &records[i]))
	}
	return ctx.JSON(http.StatusOK, data)
}

// GetRecord returns a single record by ID.
func (c *Controller) GetRecord(ctx echo.Context) error {
	record, err := c.DS.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, datastore.ErrRecordNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "record not found"})
		}
		return c.serverError(ctx, err, "getting record")
	}
	return ctx.JSON(http.StatusOK, c.recordResponse(ctx, &record))
}

// parseLimit applies the default and the maximum to a limit query param.
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (c *Controller) serverError(ctx echo.Context, err error, operation string) error {
	if c.apiLogger != nil {
		c.apiLogger.Error(operation+" failed", "error", err, "path", ctx.Path())
	}
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (c *Controller) logIngestRejected(ctx echo.Context, fieldErrors map[string]string) {
	if c.apiLogger == nil {
		return
	}
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	c.apiLogger.Warn("waste record submission rejected",
		"fields", strings.Join(fields, ","), "ip", ctx.RealIP())
}
