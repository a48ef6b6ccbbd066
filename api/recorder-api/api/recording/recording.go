package recording_api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_capture "github.com/rapidaai/scribe/api/recorder-api/internal/capture"
	internal_session "github.com/rapidaai/scribe/api/recorder-api/internal/session"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

type RecordingApi struct {
	cfg          *config.AppConfig
	logger       commons.Logger
	orchestrator *internal_session.Orchestrator
	device       *internal_capture.GatewayDevice
}

func NewRecordingApi(
	cfg *config.AppConfig,
	logger commons.Logger,
	orchestrator *internal_session.Orchestrator,
	device *internal_capture.GatewayDevice,
) *RecordingApi {
	return &RecordingApi{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orchestrator,
		device:       device,
	}
}

// StartRecording begins a new recording session.
//
// @Router /v1/recordings/ [post]
// @Success 201 {object} gin.H
// @Failure 409 {object} gin.H "another session is active"
func (rApi *RecordingApi) StartRecording(c *gin.Context) {
	var req startRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := rApi.orchestrator.StartSession(c.Request.Context(), internal_session.StartOptions{
		Title:    req.Title,
		Encrypt:  req.Encrypt,
		Live:     req.Live,
		Language: req.Language,
	})
	if err != nil {
		if errors.Is(err, internal_type.ErrAlreadyActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		rApi.logger.Errorf("recording: start failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":    id,
		"state": rApi.orchestrator.State(),
	})
}

// StopRecording ends the active session. Without an active session it is a
// no-op that just reports the current state.
//
// @Router /v1/recordings/stop/ [post]
func (rApi *RecordingApi) StopRecording(c *gin.Context) {
	record, err := rApi.orchestrator.StopSession(c.Request.Context())
	if err != nil {
		rApi.logger.Errorf("recording: stop failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"state": rApi.orchestrator.State(),
		})
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{"state": rApi.orchestrator.State()})
		return
	}
	c.JSON(http.StatusOK, newRecordingResponse(record))
}

// Status reports the orchestrator state and the active session, if any.
func (rApi *RecordingApi) Status(c *gin.Context) {
	status := gin.H{"state": rApi.orchestrator.State()}
	if id, ok := rApi.orchestrator.ActiveSessionID(); ok {
		status["activeRecordingId"] = id
	}
	c.JSON(http.StatusOK, status)
}

func (rApi *RecordingApi) ListRecordings(c *gin.Context) {
	sessions, err := rApi.orchestrator.ListSessions(c.Request.Context())
	if err != nil {
		rApi.logger.Errorf("recording: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordings": newRecordingResponses(sessions)})
}

func (rApi *RecordingApi) GetRecording(c *gin.Context) {
	record, err := rApi.orchestrator.GetSession(c.Request.Context(), c.Param("recordingId"))
	if err != nil {
		if errors.Is(err, internal_type.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		rApi.logger.Errorf("recording: get failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newRecordingResponse(record))
}

// DeleteRecording removes a session, its stored audio and its key.
//
// @Router /v1/recordings/:recordingId/ [delete]
func (rApi *RecordingApi) DeleteRecording(c *gin.Context) {
	id := c.Param("recordingId")
	if err := rApi.orchestrator.DeleteSession(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, internal_type.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			var persistenceErr *internal_type.PersistenceError
			if errors.As(err, &persistenceErr) {
				rApi.logger.Errorf("recording: delete failed: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			// Still recording or transcribing.
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (rApi *RecordingApi) GetTranscript(c *gin.Context) {
	transcript, err := rApi.orchestrator.GetTranscript(c.Request.Context(), c.Param("recordingId"))
	if err != nil {
		if errors.Is(err, internal_type.ErrSessionNotFound) || errors.Is(err, internal_type.ErrTranscriptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		rApi.logger.Errorf("recording: transcript fetch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transcript)
}

// Retranscribe reruns batch transcription on the stored audio. Useful after
// a transient provider failure left a session without a transcript.
//
// @Router /v1/recordings/:recordingId/transcript/ [post]
func (rApi *RecordingApi) Retranscribe(c *gin.Context) {
	id := c.Param("recordingId")
	record, err := rApi.orchestrator.Retranscribe(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, internal_type.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			var transcriptionErr *internal_type.TranscriptionError
			if errors.As(err, &transcriptionErr) {
				rApi.logger.Errorf("recording: re-transcription failed: %v", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, newRecordingResponse(record))
}
