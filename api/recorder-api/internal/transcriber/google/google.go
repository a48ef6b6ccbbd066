// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_google

import (
	"fmt"
	"strings"

	"cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// Introduced constants for default values
const (
	DefaultLanguageCode = "en-US"       // Default language code for Speech-to-Text
	DefaultModel        = "latest_long" // Default model for whole-recording recognition
)

// googleOption is the primary configuration structure for Google services
type googleOption struct {
	logger        commons.Logger
	clientOptions []option.ClientOption
	projectId     string
	region        string
	model         string
	languageCodes []string
}

// NewGoogleOption initializes googleOption from the configured credentials
// and recognition settings. An empty language selects the configured default.
func NewGoogleOption(logger commons.Logger, cfg *config.AppConfig, language string) (*googleOption, error) {
	google := cfg.Transcriber.Google
	if utils.IsEmpty(google.ProjectId) {
		return nil, fmt.Errorf("google-stt: project id is not configured")
	}

	co := make([]option.ClientOption, 0)
	if google.ApiKey != "" {
		co = append(co, option.WithAPIKey(google.ApiKey))
	}
	co = append(co, option.WithQuotaProject(google.ProjectId))
	if google.ServiceAccountKey != "" {
		co = append(co, option.WithCredentialsJSON([]byte(google.ServiceAccountKey)))
	}

	model := google.Model
	if utils.IsEmpty(model) {
		model = DefaultModel
	}

	if utils.IsEmpty(language) {
		language = cfg.Transcriber.Language
	}
	languageCodes := []string{}
	for _, code := range strings.Split(language, commons.SEPARATOR) {
		code = strings.TrimSpace(code)
		if code != "" {
			languageCodes = append(languageCodes, code)
		}
	}
	if len(languageCodes) == 0 {
		logger.Warn("Language not specified, defaulting to " + DefaultLanguageCode)
		languageCodes = []string{DefaultLanguageCode}
	}

	return &googleOption{
		logger:        logger,
		clientOptions: co,
		projectId:     google.ProjectId,
		region:        strings.TrimSpace(google.Region),
		model:         model,
		languageCodes: languageCodes,
	}, nil
}

// RecognitionOptions generates the configuration for whole-recording
// recognition. Stored recordings carry a WAV header, so decoding is
// auto-detected rather than declared.
func (gog *googleOption) RecognitionOptions() *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
			AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
		},
		Features: &speechpb.RecognitionFeatures{
			EnableAutomaticPunctuation: true,
			EnableWordConfidence:       true,
			EnableWordTimeOffsets:      true,
		},
		LanguageCodes: gog.languageCodes,
		Model:         gog.model,
	}
}

func (gog *googleOption) GetRecognizer() string {
	if gog.region != "" && gog.region != "global" {
		return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", gog.projectId, gog.region)
	}
	return fmt.Sprintf("projects/%s/locations/global/recognizers/_", gog.projectId)
}

func (gog *googleOption) GetSpeechToTextClientOptions() []option.ClientOption {
	if gog.region != "" && gog.region != "global" {
		return append(gog.clientOptions, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:443", gog.region)))
	}
	return gog.clientOptions
}
