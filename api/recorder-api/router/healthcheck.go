package recorder_routers

import (
	"github.com/gin-gonic/gin"

	healthCheckApi "github.com/rapidaai/scribe/api/recorder-api/api/healthcheck"
	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_store "github.com/rapidaai/scribe/api/recorder-api/internal/store"
	"github.com/rapidaai/scribe/pkg/commons"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, store internal_store.Store) {
	logger.Info("Internal HealthCheckRoutes added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, store)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
