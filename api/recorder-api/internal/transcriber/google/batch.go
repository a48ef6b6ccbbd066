// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_google

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_transcriber "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

type googleBatchSpeechToText struct {
	*googleOption
	logger commons.Logger
}

// Name implements internal_transcriber.BatchSpeechToText.
func (*googleBatchSpeechToText) Name() string {
	return "google-batch-speech-to-text"
}

func NewGoogleBatchSpeechToText(logger commons.Logger, cfg *config.AppConfig, language string) (internal_transcriber.BatchSpeechToText, error) {
	googleOpts, err := NewGoogleOption(logger, cfg, language)
	if err != nil {
		logger.Errorf("google-stt: initializing google failed %+v", err)
		return nil, err
	}
	return &googleBatchSpeechToText{googleOption: googleOpts, logger: logger}, nil
}

func (gbt *googleBatchSpeechToText) Transcribe(ctx context.Context, audio []byte) (*internal_type.Transcript, error) {
	client, err := speech.NewClient(ctx, gbt.GetSpeechToTextClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("google-stt: client creation failed: %w", err)
	}
	defer client.Close()

	response, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer:  gbt.GetRecognizer(),
		Config:      gbt.RecognitionOptions(),
		AudioSource: &speechpb.RecognizeRequest_Content{Content: audio},
	})
	if err != nil {
		return nil, fmt.Errorf("google-stt: recognition failed: %w", err)
	}

	transcript := normalizeRecognizeResponse(response)
	if transcript.Text == "" {
		return nil, fmt.Errorf("google-stt: empty transcription response")
	}
	gbt.logger.Infof("google-stt: recognition finished, %d segments", len(transcript.Segments))
	return transcript, nil
}
