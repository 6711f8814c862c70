package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mlrig/hwmon/internal/domain"
	"github.com/mlrig/hwmon/internal/hub"
)

type response struct {
	Ok    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Stats is the slice of the sampler the API needs.
type Stats interface {
	Latest() (domain.Snapshot, bool)
	ResetTotals()
}

// InventorySource produces the hardware inventory on demand.
type InventorySource func(ctx context.Context) domain.Inventory

// CheckSource runs the environment validation suite.
type CheckSource func(ctx context.Context) []domain.CheckResult

// StoredInventorySource loads the inventory persisted on a previous
// run. A nil inventory with a nil error means none has been recorded.
type StoredInventorySource func() (*domain.Inventory, error)

type API struct {
	stats     Stats
	hub       *hub.Hub
	inventory InventorySource
	stored    StoredInventorySource
	checks    CheckSource
	version   string
	logger    *slog.Logger
}

func NewAPI(stats Stats, h *hub.Hub, inventory InventorySource, stored StoredInventorySource, checks CheckSource, version string, logger *slog.Logger) *API {
	return &API{
		stats:     stats,
		hub:       h,
		inventory: inventory,
		stored:    stored,
		checks:    checks,
		version:   version,
		logger:    logger,
	}
}

func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/", a.dashboard)
	router.GET("/healthz", a.healthz)
	router.GET("/api/metrics", a.metrics)
	router.GET("/api/inventory", a.inventoryHandler)
	router.GET("/api/inventory/last", a.storedInventoryHandler)
	router.GET("/api/checks", a.checksHandler)
	router.POST("/api/reset", a.reset)
	router.GET("/ws", a.websocketHandler)
}

func (a *API) dashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

func (a *API) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": a.version,
	})
}

// metrics returns the most recent snapshot. 503 until the first sample
// completes.
func (a *API) metrics(c *gin.Context) {
	snap, ok := a.stats.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, response{Ok: false, Error: "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, response{Ok: true, Data: snap})
}

func (a *API) inventoryHandler(c *gin.Context) {
	inv := a.inventory(c.Request.Context())
	c.JSON(http.StatusOK, response{Ok: true, Data: inv})
}

// storedInventoryHandler serves the inventory recorded at the last
// agent startup without probing the hardware again. 404 before the
// first serve run has persisted one.
func (a *API) storedInventoryHandler(c *gin.Context) {
	inv, err := a.stored()
	if err != nil {
		a.logger.Error("loading stored inventory", "error", err)
		c.JSON(http.StatusInternalServerError, response{Ok: false, Error: "stored inventory unreadable"})
		return
	}
	if inv == nil {
		c.JSON(http.StatusNotFound, response{Ok: false, Error: "no inventory recorded yet"})
		return
	}
	c.JSON(http.StatusOK, response{Ok: true, Data: inv})
}

func (a *API) checksHandler(c *gin.Context) {
	results := a.checks(c.Request.Context())
	c.JSON(http.StatusOK, response{Ok: true, Data: results})
}

func (a *API) reset(c *gin.Context) {
	a.stats.ResetTotals()
	a.logger.Info("running totals reset requested")
	c.JSON(http.StatusOK, response{Ok: true})
}
