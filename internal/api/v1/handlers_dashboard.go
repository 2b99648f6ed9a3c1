package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/export"
	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/service"
)

// handleDashboardStats returns the admin landing-page aggregates.
func (r *APIRouter) handleDashboardStats(c *gin.Context) {
	stats, err := r.reports.Dashboard(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load dashboard: "+err.Error())
		return
	}
	sendSuccess(c, stats)
}

// handleExportOrders streams the order report as CSV or XLSX.
func (r *APIRouter) handleExportOrders(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := r.reports.OrderRows(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to build report: "+err.Error())
		return
	}
	data, err := export.Export(format, "Orders", service.OrderExportColumns, rows)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to render export: "+err.Error())
		return
	}

	filename := fmt.Sprintf("orders-%s%s", time.Now().Format("2006-01-02"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}
