// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_transcriber "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber"
	"github.com/rapidaai/scribe/pkg/commons"
)

type deepgramSpeechToText struct {
	*deepgramOption
	mu                 sync.Mutex
	closing            bool
	logger             commons.Logger
	ctx                context.Context
	connection         *websocket.Conn
	done               chan struct{}
	transformerOptions *internal_transcriber.SpeechToTextInitializeOptions
}

// Name implements internal_transcriber.StreamingSpeechToText.
func (*deepgramSpeechToText) Name() string {
	return "deepgram-speech-to-text"
}

func NewDeepgramSpeechToText(ctx context.Context,
	logger commons.Logger,
	cfg *config.AppConfig,
	transformerOptions *internal_transcriber.SpeechToTextInitializeOptions,
) (internal_transcriber.StreamingSpeechToText, error) {
	deepgramOpts, err := NewDeepgramOption(logger, cfg, transformerOptions.Language, transformerOptions.AudioConfig)
	if err != nil {
		logger.Errorf("deepgram-stt: initializing deepgram failed %+v", err)
		return nil, err
	}

	return &deepgramSpeechToText{
		ctx:                ctx,
		logger:             logger,
		deepgramOption:     deepgramOpts,
		done:               make(chan struct{}),
		transformerOptions: transformerOptions,
	}, nil
}

// speechToTextCallback processes streaming responses asynchronously.
func (dst *deepgramSpeechToText) speechToTextCallback(ctx context.Context) {
	defer close(dst.done)
	for {
		select {
		case <-ctx.Done():
			dst.logger.Infof("deepgram-stt: context cancelled, stopping response listener")
			return
		default:
			_, msg, err := dst.connection.ReadMessage()
			if err != nil {
				if !dst.isClosing() {
					dst.logger.Errorf("deepgram-stt: error reading from Deepgram WebSocket: %v", err)
					if dst.transformerOptions.OnError != nil {
						dst.transformerOptions.OnError(fmt.Errorf("deepgram-stt: stream read failed: %w", err))
					}
				}
				return
			}
			var resp liveResponse
			if err := json.Unmarshal(msg, &resp); err != nil {
				dst.logger.Warnf("deepgram-stt: undecodable message: %v", err)
				continue
			}
			switch resp.Type {
			case liveMessageResults:
				if text, confidence, ok := resp.transcript(); ok && dst.transformerOptions.OnTranscript != nil {
					dst.transformerOptions.OnTranscript(text, confidence, dst.language, resp.IsFinal)
				}
			case liveMessageMetadata:
				// Metadata arrives once the server has flushed everything
				// after a CloseStream; the drain is complete.
				return
			}
		}
	}
}

func (dst *deepgramSpeechToText) isClosing() bool {
	dst.mu.Lock()
	defer dst.mu.Unlock()
	return dst.closing
}

func (dst *deepgramSpeechToText) Initialize() error {
	dst.mu.Lock()
	defer dst.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(dst.GetSpeechToTextConnectionString(), dst.GetSpeechToTextHeader())
	if err != nil {
		return fmt.Errorf("deepgram-stt: failed to connect to Deepgram WebSocket: %w", err)
	}
	dst.connection = conn
	go dst.speechToTextCallback(dst.ctx)
	return nil
}

func (dst *deepgramSpeechToText) Transform(ctx context.Context, audio []byte) error {
	dst.mu.Lock()
	defer dst.mu.Unlock()

	if dst.connection == nil {
		return fmt.Errorf("deepgram-stt: websocket connection is not initialized")
	}
	if dst.closing {
		return fmt.Errorf("deepgram-stt: recognizer is draining")
	}
	if err := dst.connection.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

// Close tells Deepgram to flush remaining results, waits for the final
// metadata message bounded by ctx, then closes the socket.
func (dst *deepgramSpeechToText) Close(ctx context.Context) error {
	dst.mu.Lock()
	if dst.connection == nil || dst.closing {
		dst.mu.Unlock()
		return nil
	}
	dst.closing = true
	writeErr := dst.connection.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	dst.mu.Unlock()

	if writeErr == nil {
		select {
		case <-dst.done:
		case <-ctx.Done():
			dst.logger.Warnf("deepgram-stt: result drain cut short: %v", ctx.Err())
		}
	}

	if err := dst.connection.Close(); err != nil {
		return fmt.Errorf("error closing WebSocket connection: %w", err)
	}
	dst.logger.Info("deepgram-stt: deepgram websocket connection closed")
	return nil
}
