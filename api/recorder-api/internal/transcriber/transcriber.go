// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_transcriber

import (
	"context"

	internal_audio "github.com/rapidaai/scribe/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
)

// Provider names accepted by the transcriber configuration.
const (
	ProviderDeepgram = "deepgram"
	ProviderGoogle   = "google"
)

// SpeechToTextInitializeOptions carries everything a streaming engine needs
// before the first audio frame flows: the audio shape, the language, and the
// callbacks that hand results back to the session.
//
// OnTranscript and OnError fire on the engine's reader goroutine. An engine
// stops invoking them once Close has completed its drain.
type SpeechToTextInitializeOptions struct {
	AudioConfig internal_audio.AudioConfig
	Language    string

	OnTranscript func(text string, confidence float64, language string, isFinal bool)
	OnError      func(err error)
}

// StreamingSpeechToText is a live recognizer fed frame by frame while a
// recording session runs.
type StreamingSpeechToText interface {
	Name() string
	// Initialize dials the provider and starts the response listener.
	Initialize() error
	// Transform sends one audio frame to the recognizer.
	Transform(ctx context.Context, audio []byte) error
	// Close asks the provider to flush pending results, waits for the drain
	// bounded by ctx, then tears the connection down. Safe to call twice.
	Close(ctx context.Context) error
}

// BatchSpeechToText transcribes one complete recording in a single call.
type BatchSpeechToText interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte) (*internal_type.Transcript, error)
}

// StreamingFactory opens a live recognizer bound to one recording session.
type StreamingFactory func(ctx context.Context, opts *SpeechToTextInitializeOptions) (StreamingSpeechToText, error)

// BatchFactory returns the configured whole-recording engine. An empty
// language selects the configured default.
type BatchFactory func(ctx context.Context, language string) (BatchSpeechToText, error)
