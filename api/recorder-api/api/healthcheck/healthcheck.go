package healthcheck_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_store "github.com/rapidaai/scribe/api/recorder-api/internal/store"
	"github.com/rapidaai/scribe/pkg/commons"
)

type HealthCheckApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	store  internal_store.Store
}

func New(cfg *config.AppConfig, logger commons.Logger, store internal_store.Store) *HealthCheckApi {
	return &HealthCheckApi{cfg: cfg, logger: logger, store: store}
}

// Healthz reports process liveness.
func (hApi *HealthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": hApi.cfg.Name,
		"version": hApi.cfg.Version,
	})
}

// Readiness reports whether the session store is reachable.
func (hApi *HealthCheckApi) Readiness(c *gin.Context) {
	if _, err := hApi.store.LoadAll(c.Request.Context()); err != nil {
		hApi.logger.Errorf("healthcheck: store not ready: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
