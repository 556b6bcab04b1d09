package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/realtime"
	"github.com/aegisvault/aegis-monitor/pkg/services"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	console *services.Console
	hub     *realtime.Hub
}

// NewAPIHandler creates a new API handler. hub may be nil, in which case the
// streaming endpoints are not registered.
func NewAPIHandler(console *services.Console, hub *realtime.Hub) *APIHandler {
	return &APIHandler{
		console: console,
		hub:     hub,
	}
}

// errorStatus maps a view error to an HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUnknownView):
		return http.StatusNotFound
	case errors.Is(err, services.ErrViewNotMounted),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes it as a JSON error
func fail(c echo.Context, err error, action string) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("Error %s: %v", action, err)
	} else {
		logrus.Debugf("Rejected %s: %v", action, err)
	}
	return c.JSON(status, map[string]string{"error": fmt.Sprintf("Failed %s: %v", action, err)})
}

// bindQuery reads filter parameters from the query string for any method.
// A malformed query ends the request with a 400 through echo's error handler.
func bindQuery(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		logrus.Debugf("Rejected query %s: %v", c.QueryString(), err)
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}
	return nil
}

// Health reports liveness and the active tab
func (h *APIHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"active": h.console.Active(),
	})
}

// GetTabs returns the tab bar
func (h *APIHandler) GetTabs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"active": h.console.Active(),
		"tabs":   h.console.Tabs(),
	})
}

// ActivateTab switches the active tab
func (h *APIHandler) ActivateTab(c echo.Context) error {
	tab := c.Param("tab")
	if err := h.console.Activate(tab); err != nil {
		return fail(c, err, "to activate tab "+tab)
	}
	return h.GetTabs(c)
}

// MountTab mounts a view with fresh state
func (h *APIHandler) MountTab(c echo.Context) error {
	tab := c.Param("tab")
	if err := h.console.Mount(tab); err != nil {
		return fail(c, err, "to mount tab "+tab)
	}
	return h.GetTabs(c)
}

// UnmountTab stops a view's timers and discards its state
func (h *APIHandler) UnmountTab(c echo.Context) error {
	tab := c.Param("tab")
	if err := h.console.Unmount(tab); err != nil {
		return fail(c, err, "to unmount tab "+tab)
	}
	return h.GetTabs(c)
}

// GetDashboard returns the overview cards, recent alerts and threat chart
func (h *APIHandler) GetDashboard(c echo.Context) error {
	d, err := h.console.Dashboard()
	if err != nil {
		return fail(c, err, "to get dashboard")
	}
	return c.JSON(http.StatusOK, d.Overview(c.Request().Context()))
}

// GetThreats returns the filtered threat feed
func (h *APIHandler) GetThreats(c echo.Context) error {
	td, err := h.console.Threats()
	if err != nil {
		return fail(c, err, "to get threats")
	}
	var f services.ThreatFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, td.List(f))
}

// GetThreatStats returns the threat summary cards
func (h *APIHandler) GetThreatStats(c echo.Context) error {
	td, err := h.console.Threats()
	if err != nil {
		return fail(c, err, "to get threat stats")
	}
	return c.JSON(http.StatusOK, td.Stats())
}

// RunThreatScan starts a manual scan
func (h *APIHandler) RunThreatScan(c echo.Context) error {
	td, err := h.console.Threats()
	if err != nil {
		return fail(c, err, "to start scan")
	}
	if err := td.RunScan(); err != nil {
		return fail(c, err, "to start scan")
	}
	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message":  "Scan started",
		"scanning": td.Scanning(),
	})
}

// ExportThreats acknowledges an export of the filtered threats
func (h *APIHandler) ExportThreats(c echo.Context) error {
	td, err := h.console.Threats()
	if err != nil {
		return fail(c, err, "to export threats")
	}
	var f services.ThreatFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, td.Export(f))
}

// GetPackets returns the filtered packet buffer
func (h *APIHandler) GetPackets(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to get packets")
	}
	var f services.PacketFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pa.List(f))
}

// GetPacket returns one packet with its payload
func (h *APIHandler) GetPacket(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to get packet")
	}
	id := c.Param("id")
	p, err := pa.Get(id)
	if err != nil {
		return fail(c, err, "to get packet "+id)
	}
	return c.JSON(http.StatusOK, p)
}

// GetPacketStats returns packet totals per protocol
func (h *APIHandler) GetPacketStats(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to get packet stats")
	}
	return c.JSON(http.StatusOK, pa.Stats())
}

// StartCapture turns the capture toggle on
func (h *APIHandler) StartCapture(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to start capture")
	}
	if err := pa.StartCapture(); err != nil {
		return fail(c, err, "to start capture")
	}
	return c.JSON(http.StatusOK, pa.Stats())
}

// StopCapture turns the capture toggle off
func (h *APIHandler) StopCapture(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to stop capture")
	}
	pa.StopCapture()
	return c.JSON(http.StatusOK, pa.Stats())
}

// UploadCapture accepts a .pcap or .pcapng file in the "file" form field.
// A request without a file is accepted as an empty upload.
func (h *APIHandler) UploadCapture(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to upload capture")
	}

	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		upload, _ := pa.Upload("", nil)
		return c.JSON(http.StatusOK, upload)
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid upload"})
	}

	src, err := fh.Open()
	if err != nil {
		logrus.Errorf("Error opening upload %s: %v", fh.Filename, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read upload"})
	}
	defer src.Close()

	upload, err := pa.Upload(fh.Filename, src)
	if err != nil {
		return fail(c, err, "to upload capture")
	}
	return c.JSON(http.StatusOK, upload)
}

// ExportPackets acknowledges an export of the filtered packets
func (h *APIHandler) ExportPackets(c echo.Context) error {
	pa, err := h.console.Packets()
	if err != nil {
		return fail(c, err, "to export packets")
	}
	var f services.PacketFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pa.Export(f))
}

// GetAlerts returns the filtered alert feed
func (h *APIHandler) GetAlerts(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to get alerts")
	}
	var f services.AlertFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ac.List(f))
}

// GetAlertCounts returns the alert summary cards
func (h *APIHandler) GetAlertCounts(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to get alert counts")
	}
	return c.JSON(http.StatusOK, ac.Counts())
}

// GetAlert returns an alert by ID
func (h *APIHandler) GetAlert(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to get alert")
	}
	id := c.Param("id")
	alert, err := ac.Get(id)
	if err != nil {
		return fail(c, err, "to get alert "+id)
	}
	return c.JSON(http.StatusOK, alert)
}

// GetSelectedAlert returns the alert shown in the detail panel
func (h *APIHandler) GetSelectedAlert(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to get selected alert")
	}
	alert, ok := ac.Selected()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No alert selected"})
	}
	return c.JSON(http.StatusOK, alert)
}

// SelectAlert shows an alert in the detail panel
func (h *APIHandler) SelectAlert(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to select alert")
	}
	id := c.Param("id")
	alert, err := ac.Select(id)
	if err != nil {
		return fail(c, err, "to select alert "+id)
	}
	return c.JSON(http.StatusOK, alert)
}

// UpdateAlertStatus acknowledges or resolves an alert
func (h *APIHandler) UpdateAlertStatus(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to update alert")
	}
	id := c.Param("id")
	var req models.UpdateAlertStatusRequest
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding alert status request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Unknown status %q", req.Status)})
	}

	alert, err := ac.SetStatus(id, req.Status)
	if err != nil {
		return fail(c, err, "to update alert "+id)
	}
	return c.JSON(http.StatusOK, alert)
}

// DeleteAlert removes an alert from the feed
func (h *APIHandler) DeleteAlert(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to delete alert")
	}
	id := c.Param("id")
	if err := ac.Delete(id); err != nil {
		return fail(c, err, "to delete alert "+id)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Alert deleted successfully"})
}

// ExportAlerts acknowledges an export of the filtered alerts
func (h *APIHandler) ExportAlerts(c echo.Context) error {
	ac, err := h.console.Alerts()
	if err != nil {
		return fail(c, err, "to export alerts")
	}
	var f services.AlertFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ac.Export(f))
}

// GetLogs returns the filtered log stream
func (h *APIHandler) GetLogs(c echo.Context) error {
	lm, err := h.console.Logs()
	if err != nil {
		return fail(c, err, "to get logs")
	}
	var f services.LogFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lm.List(f))
}

// GetLogStats returns the log summary cards
func (h *APIHandler) GetLogStats(c echo.Context) error {
	lm, err := h.console.Logs()
	if err != nil {
		return fail(c, err, "to get log stats")
	}
	return c.JSON(http.StatusOK, lm.Stats())
}

// ExportLogs acknowledges an export of the filtered logs
func (h *APIHandler) ExportLogs(c echo.Context) error {
	lm, err := h.console.Logs()
	if err != nil {
		return fail(c, err, "to export logs")
	}
	var f services.LogFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lm.Export(f))
}

// GetConnections returns the filtered connection table
func (h *APIHandler) GetConnections(c echo.Context) error {
	nm, err := h.console.Network()
	if err != nil {
		return fail(c, err, "to get connections")
	}
	var f services.ConnectionFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nm.Connections(f))
}

// GetNetworkStats returns the network summary cards and connection counts
func (h *APIHandler) GetNetworkStats(c echo.Context) error {
	nm, err := h.console.Network()
	if err != nil {
		return fail(c, err, "to get network stats")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats":  nm.Stats(),
		"counts": nm.Counts(),
	})
}

// GetSettings returns the current settings
func (h *APIHandler) GetSettings(c echo.Context) error {
	sp, err := h.console.Settings()
	if err != nil {
		return fail(c, err, "to get settings")
	}
	return c.JSON(http.StatusOK, sp.Get())
}

// UpdateSetting changes a single setting, sent as {"value": ...}
func (h *APIHandler) UpdateSetting(c echo.Context) error {
	sp, err := h.console.Settings()
	if err != nil {
		return fail(c, err, "to update setting")
	}
	var req struct {
		Value interface{} `json:"value"`
	}
	if err := c.Bind(&req); err != nil || req.Value == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	category, key := c.Param("category"), c.Param("key")
	settings, err := sp.Update(category, key, req.Value)
	if err != nil {
		return fail(c, err, "to update setting "+category+"."+key)
	}
	return c.JSON(http.StatusOK, settings)
}

// SaveSettings acknowledges the current settings
func (h *APIHandler) SaveSettings(c echo.Context) error {
	sp, err := h.console.Settings()
	if err != nil {
		return fail(c, err, "to save settings")
	}
	return c.JSON(http.StatusOK, sp.Save())
}

// ResetSettings restores the factory defaults
func (h *APIHandler) ResetSettings(c echo.Context) error {
	sp, err := h.console.Settings()
	if err != nil {
		return fail(c, err, "to reset settings")
	}
	return c.JSON(http.StatusOK, sp.Reset())
}

// ExportSettings downloads the settings as YAML
func (h *APIHandler) ExportSettings(c echo.Context) error {
	sp, err := h.console.Settings()
	if err != nil {
		return fail(c, err, "to export settings")
	}
	out, err := sp.ExportYAML()
	if err != nil {
		return fail(c, err, "to export settings")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="aegis-settings.yaml"`)
	return c.Blob(http.StatusOK, "application/yaml", out)
}

// SetupRoutes sets up the API routes
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	// Tab endpoints
	e.GET("/api/tabs", h.GetTabs)
	e.POST("/api/tabs/:tab/activate", h.ActivateTab)
	e.POST("/api/tabs/:tab/mount", h.MountTab)
	e.POST("/api/tabs/:tab/unmount", h.UnmountTab)

	e.GET("/api/dashboard", h.GetDashboard)

	// Threat endpoints
	e.GET("/api/threats", h.GetThreats)
	e.GET("/api/threats/stats", h.GetThreatStats)
	e.POST("/api/threats/scan", h.RunThreatScan)
	e.POST("/api/threats/export", h.ExportThreats)

	// Packet endpoints
	e.GET("/api/packets", h.GetPackets)
	e.GET("/api/packets/stats", h.GetPacketStats)
	e.GET("/api/packets/:id", h.GetPacket)
	e.POST("/api/packets/capture/start", h.StartCapture)
	e.POST("/api/packets/capture/stop", h.StopCapture)
	e.POST("/api/packets/upload", h.UploadCapture)
	e.POST("/api/packets/export", h.ExportPackets)

	// Alert endpoints
	e.GET("/api/alerts", h.GetAlerts)
	e.GET("/api/alerts/counts", h.GetAlertCounts)
	e.GET("/api/alerts/selected", h.GetSelectedAlert)
	e.GET("/api/alerts/:id", h.GetAlert)
	e.POST("/api/alerts/:id/select", h.SelectAlert)
	e.PUT("/api/alerts/:id/status", h.UpdateAlertStatus)
	e.DELETE("/api/alerts/:id", h.DeleteAlert)
	e.POST("/api/alerts/export", h.ExportAlerts)

	// Log endpoints
	e.GET("/api/logs", h.GetLogs)
	e.GET("/api/logs/stats", h.GetLogStats)
	e.POST("/api/logs/export", h.ExportLogs)

	// Network endpoints
	e.GET("/api/network/connections", h.GetConnections)
	e.GET("/api/network/stats", h.GetNetworkStats)

	// Settings endpoints
	e.GET("/api/settings", h.GetSettings)
	e.PATCH("/api/settings/:category/:key", h.UpdateSetting)
	e.POST("/api/settings/save", h.SaveSettings)
	e.POST("/api/settings/reset", h.ResetSettings)
	e.GET("/api/settings/export", h.ExportSettings)

	// Live updates
	if h.hub != nil {
		e.GET("/api/events", h.StreamEvents)
		e.GET("/ws", h.StreamWebSocket)
	}
}
