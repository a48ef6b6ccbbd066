// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_deepgram

import (
	"bytes"
	"context"
	"fmt"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenclient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_audio "github.com/rapidaai/scribe/api/recorder-api/internal/audio"
	internal_transcriber "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

type deepgramBatchSpeechToText struct {
	*deepgramOption
	logger commons.Logger
}

// Name implements internal_transcriber.BatchSpeechToText.
func (*deepgramBatchSpeechToText) Name() string {
	return "deepgram-batch-speech-to-text"
}

func NewDeepgramBatchSpeechToText(logger commons.Logger, cfg *config.AppConfig, language string) (internal_transcriber.BatchSpeechToText, error) {
	if utils.IsEmpty(language) {
		language = cfg.Transcriber.Language
	}
	deepgramOpts, err := NewDeepgramOption(logger, cfg, language, internal_audio.RAPIDA_INTERNAL_AUDIO_CONFIG)
	if err != nil {
		logger.Errorf("deepgram-stt: initializing deepgram failed %+v", err)
		return nil, err
	}
	return &deepgramBatchSpeechToText{deepgramOption: deepgramOpts, logger: logger}, nil
}

func (dbt *deepgramBatchSpeechToText) Transcribe(ctx context.Context, audio []byte) (*internal_type.Transcript, error) {
	client := listenclient.NewREST(dbt.GetKey(), &clientinterfaces.ClientOptions{})
	dg := listenv1rest.New(client)

	options := &clientinterfaces.PreRecordedTranscriptionOptions{
		Model:       dbt.model,
		Language:    dbt.language,
		Punctuate:   true,
		SmartFormat: true,
	}
	response, err := dg.FromStream(ctx, bytes.NewReader(audio), options)
	if err != nil {
		return nil, fmt.Errorf("deepgram-stt: prerecorded transcription failed: %w", err)
	}
	if response == nil || len(response.Results.Channels) == 0 || len(response.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("deepgram-stt: empty transcription response")
	}

	alternative := response.Results.Channels[0].Alternatives[0]
	spans := make([]wordSpan, 0, len(alternative.Words))
	for _, word := range alternative.Words {
		spans = append(spans, wordSpan{
			Text:       word.Word,
			Start:      word.Start,
			End:        word.End,
			Confidence: word.Confidence,
		})
	}
	dbt.logger.Infof("deepgram-stt: prerecorded transcription finished, %d words", len(spans))
	return &internal_type.Transcript{
		Text:     alternative.Transcript,
		Segments: segmentsFromSpans(spans),
	}, nil
}
