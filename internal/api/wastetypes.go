// internal/api/wastetypes.go
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hqnguyen/wastenet-go/internal/datastore"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

func (c *Controller) initWasteTypeRoutes() {
	c.Group.GET("/waste-types", c.GetWasteTypes)
	c.Group.DELETE("/waste-types/:id", c.DeleteWasteType)
}

// WasteTypeResponse represents a waste category in API responses.
type WasteTypeResponse struct {
	ID          uint   `json:"id"`
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

// GetWasteTypes lists all waste categories.
func (c *Controller) GetWasteTypes(ctx echo.Context) error {
	types, err := c.DS.WasteTypes()
	if err != nil {
		return c.serverError(ctx, err, "getting waste types")
	}

	resp := make([]WasteTypeResponse, 0, len(types))
	for _, t := range types {
		resp = append(resp, WasteTypeResponse{
			ID:          t.ID,
			Label:       t.Label,
			DisplayName: t.DisplayName,
			Color:       t.Color,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// DeleteWasteType removes a category and, by cascade, every record that
// references it.
func (c *Controller) DeleteWasteType(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"id": "a valid integer is required"})
	}

	if err := c.DS.DeleteWasteType(uint(id)); err != nil {
		if errors.Is(err, datastore.ErrRecordNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "waste type not found"})
		}
		return c.serverError(ctx, err, "deleting waste type")
	}

	if c.apiLogger != nil {
		c.apiLogger.Info("waste type deleted with its records", "id", id)
	}
	return ctx.NoContent(http.StatusNoContent)
}
