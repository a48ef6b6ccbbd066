// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package recording_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	internal_capture "github.com/rapidaai/scribe/api/recorder-api/internal/capture"
)

var audioUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamAudio accepts the capture shell's audio feed over a WebSocket.
// Binary frames carry raw audio in the encoding named by the `encoding`
// query parameter; linear16 is assumed when absent.
//
// The feed is independent of session lifecycle on purpose: the shell keeps
// one connection open and frames that arrive while no session is recording
// are discarded.
//
// @Router /v1/recordings/audio/ [get]
// @Param encoding query string false "audio encoding: linear16 or mulaw"
// @Success 101 "Switching Protocols"
func (rApi *RecordingApi) StreamAudio(c *gin.Context) {
	conn, err := audioUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rApi.logger.Errorf("recording: WebSocket upgrade failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to upgrade to WebSocket"})
		return
	}
	defer conn.Close()

	encoding := c.DefaultQuery("encoding", internal_capture.EncodingLinear16)
	rApi.logger.Infow("recording: audio feed connected",
		"encoding", encoding,
		"remote", c.ClientIP(),
	)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				rApi.logger.Warnf("recording: audio feed closed unexpectedly: %v", err)
			} else {
				rApi.logger.Info("recording: audio feed disconnected")
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if err := rApi.device.Push(data, encoding); err != nil {
			// Frames outside an active session are dropped, not an error.
			rApi.logger.Debugf("recording: frame discarded: %v", err)
		}
	}
}
