// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_transcriber_provider

import (
	"context"
	"fmt"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_transcriber "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber"
	internal_transcriber_deepgram "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber/deepgram"
	internal_transcriber_google "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber/google"
	"github.com/rapidaai/scribe/pkg/commons"
)

// NewStreamingFactory returns the factory for live recognizers. Live
// recognition is served by Deepgram regardless of the batch provider.
func NewStreamingFactory(cfg *config.AppConfig, logger commons.Logger) internal_transcriber.StreamingFactory {
	return func(ctx context.Context, opts *internal_transcriber.SpeechToTextInitializeOptions) (internal_transcriber.StreamingSpeechToText, error) {
		return internal_transcriber_deepgram.NewDeepgramSpeechToText(ctx, logger, cfg, opts)
	}
}

// NewBatchFactory returns the factory for the configured whole-recording
// engine.
func NewBatchFactory(cfg *config.AppConfig, logger commons.Logger) (internal_transcriber.BatchFactory, error) {
	switch cfg.Transcriber.Provider {
	case internal_transcriber.ProviderDeepgram:
		return func(ctx context.Context, language string) (internal_transcriber.BatchSpeechToText, error) {
			return internal_transcriber_deepgram.NewDeepgramBatchSpeechToText(logger, cfg, language)
		}, nil
	case internal_transcriber.ProviderGoogle:
		return func(ctx context.Context, language string) (internal_transcriber.BatchSpeechToText, error) {
			return internal_transcriber_google.NewGoogleBatchSpeechToText(logger, cfg, language)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider %q", cfg.Transcriber.Provider)
	}
}
