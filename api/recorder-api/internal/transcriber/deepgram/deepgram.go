// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_deepgram

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_audio "github.com/rapidaai/scribe/api/recorder-api/internal/audio"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

const (
	liveEndpoint       = "wss://api.deepgram.com/v1/listen"
	defaultModel       = "nova-2"
	defaultEndpointing = "300"
)

type deepgramOption struct {
	logger      commons.Logger
	key         string
	model       string
	language    string
	endpointing string
	audioConfig internal_audio.AudioConfig
}

func NewDeepgramOption(
	logger commons.Logger,
	cfg *config.AppConfig,
	language string,
	audioConfig internal_audio.AudioConfig,
) (*deepgramOption, error) {
	if utils.IsEmpty(cfg.Transcriber.Deepgram.ApiKey) {
		return nil, fmt.Errorf("deepgram-stt: api key is not configured")
	}
	model := cfg.Transcriber.Deepgram.Model
	if utils.IsEmpty(model) {
		model = defaultModel
	}
	endpointing := cfg.Transcriber.Deepgram.Endpointing
	if utils.IsEmpty(endpointing) {
		endpointing = defaultEndpointing
	}
	return &deepgramOption{
		logger:      logger,
		key:         cfg.Transcriber.Deepgram.ApiKey,
		model:       model,
		language:    language,
		endpointing: endpointing,
		audioConfig: audioConfig,
	}, nil
}

func (o *deepgramOption) GetKey() string {
	return o.key
}

func (o *deepgramOption) GetEncoding() string {
	return "linear16"
}

func (o *deepgramOption) GetSpeechToTextConnectionString() string {
	params := url.Values{}
	params.Add("model", o.model)
	params.Add("language", o.language)
	params.Add("encoding", o.GetEncoding())
	params.Add("sample_rate", strconv.FormatUint(uint64(o.audioConfig.SampleRate), 10))
	params.Add("channels", strconv.FormatUint(uint64(o.audioConfig.Channels), 10))
	params.Add("punctuate", "true")
	params.Add("smart_format", "true")
	params.Add("interim_results", "true")
	params.Add("endpointing", o.endpointing)
	return fmt.Sprintf("%s?%s", liveEndpoint, params.Encode())
}

func (o *deepgramOption) GetSpeechToTextHeader() http.Header {
	return http.Header{utils.HEADER_AUTH_KEY: []string{"Token " + o.key}}
}
