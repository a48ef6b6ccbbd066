package recorder_routers

import (
	"github.com/gin-gonic/gin"

	recordingApi "github.com/rapidaai/scribe/api/recorder-api/api/recording"
	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_capture "github.com/rapidaai/scribe/api/recorder-api/internal/capture"
	internal_session "github.com/rapidaai/scribe/api/recorder-api/internal/session"
	"github.com/rapidaai/scribe/pkg/commons"
)

func RecordingApiRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	orchestrator *internal_session.Orchestrator,
	device *internal_capture.GatewayDevice,
) {
	apiv1 := engine.Group("v1/recordings", AuthMiddleware(cfg, logger))
	rApi := recordingApi.NewRecordingApi(cfg, logger, orchestrator, device)
	{
		apiv1.POST("/", rApi.StartRecording)
		apiv1.POST("/stop/", rApi.StopRecording)
		apiv1.GET("/", rApi.ListRecordings)
		apiv1.GET("/status/", rApi.Status)

		// audio feed from the capture shell
		// /v1/recordings/audio/?encoding=linear16&x-api-key=...
		apiv1.GET("/audio/", rApi.StreamAudio)

		apiv1.GET("/:recordingId/", rApi.GetRecording)
		apiv1.DELETE("/:recordingId/", rApi.DeleteRecording)
		apiv1.GET("/:recordingId/transcript/", rApi.GetTranscript)
		apiv1.POST("/:recordingId/transcript/", rApi.Retranscribe)
	}
}
