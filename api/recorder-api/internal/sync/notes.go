// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_sync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/go-resty/resty/v2"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

const (
	defaultRetryDelay = 2 * time.Second
	publishTimeout    = 15 * time.Second

	// defaultNoteTemplate renders the published note body when no template is
	// configured.
	defaultNoteTemplate = `# {{ title }}

{{ text }}
{% if tags %}
Tags: {% for tag in tags %}#{{ tag }} {% endfor %}{% endif %}`
)

type noteSyncClient struct {
	logger   commons.Logger
	client   *resty.Client
	template *pongo2.Template
	url      string
	apiKey   string
}

type publishRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// NewNoteSyncClient returns a SyncClient that publishes transcripts to the
// configured notes endpoint. Each publish makes at most two attempts: the
// original call and one retry after a fixed delay.
func NewNoteSyncClient(logger commons.Logger, cfg *config.AppConfig) (internal_type.SyncClient, error) {
	if utils.IsEmpty(cfg.Sync.Url) {
		return nil, fmt.Errorf("sync: url is not configured")
	}

	source := cfg.Sync.NoteTemplate
	if utils.IsEmpty(source) {
		source = defaultNoteTemplate
	}
	template, err := pongo2.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("sync: note template: %w", err)
	}

	retryDelay := cfg.Sync.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	client := resty.New().
		SetTimeout(publishTimeout).
		SetHeader(utils.HEADER_SOURCE_KEY, cfg.Name).
		SetHeader(utils.HEADER_ENVIRONMENT_KEY, utils.FromEnvironmentStr(cfg.Environment).Get()).
		SetRetryCount(1).
		SetRetryWaitTime(retryDelay).
		SetRetryMaxWaitTime(retryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &noteSyncClient{
		logger:   logger,
		client:   client,
		template: template,
		url:      cfg.Sync.Url,
		apiKey:   cfg.Sync.ApiKey,
	}, nil
}

func (s *noteSyncClient) Publish(ctx context.Context, title, text string, tags []string) error {
	content, err := s.template.Execute(pongo2.Context{
		"title": title,
		"text":  text,
		"tags":  tags,
	})
	if err != nil {
		return fmt.Errorf("sync: note rendering failed: %w", err)
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader(utils.HEADER_API_KEY, s.apiKey).
		SetBody(&publishRequest{Title: title, Content: content, Tags: tags}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("sync: publish failed: %w", err)
	}
	if response.IsError() {
		return fmt.Errorf("sync: publish rejected with status %s", response.Status())
	}
	s.logger.Infow("sync: note published", "title", title, "status", response.StatusCode())
	return nil
}
