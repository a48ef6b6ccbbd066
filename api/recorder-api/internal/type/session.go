// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "time"

// SessionState is the orchestrator's current position in the recording
// lifecycle. It is in-memory state, not part of the stored record.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateRecording        SessionState = "recording"
	StateStopping         SessionState = "stopping"
	StatePersisting       SessionState = "persisting"
	StateLiveTranscribing SessionState = "live-transcribing"
	StateTranscribing     SessionState = "transcribing"
	StateCompleted        SessionState = "completed"
	StateFailed           SessionState = "failed"
)

// Startable reports whether a new session may be started from this state.
func (s SessionState) Startable() bool {
	switch s {
	case StateIdle, StateCompleted, StateFailed:
		return true
	}
	return false
}

// Stored record status constants. A record only exists once persistence has
// succeeded, so there is no stored "failed" status.
const (
	StatusProcessing = "processing" // persisted, transcription still pending
	StatusCompleted  = "completed"  // transcription attempt finished (with or without a transcript)
)

// RecordingSession is the durable metadata for one bounded recording unit.
// It bridges the stop of capture and everything that happens after it:
// transcription can finish minutes later and the retention sweep may visit the
// record days later, so the record carries everything those steps need.
//
// Mutated only by the orchestrator: Duration is finalized exactly once at stop,
// TranscriptAvailable is flipped by transcription, everything else is written
// at creation.
type RecordingSession struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// StorageHandle is the opaque reference to the stored payload. Callers
	// never see a raw filesystem path; only the session store can resolve it.
	StorageHandle string `json:"storageHandle"`

	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`

	EncryptionEnabled bool `json:"encryptionEnabled"`
	// KeyIdentifier is empty exactly when EncryptionEnabled is false. While the
	// session exists the identifier must stay resolvable in the key store.
	KeyIdentifier string `json:"keyIdentifier,omitempty"`

	// Language is the recognition language requested at start, empty when the
	// session runs on the configured default. Re-transcription reuses it.
	Language string `json:"language,omitempty"`

	TranscriptAvailable bool `json:"transcriptAvailable"`

	CreatedDate    time.Time `json:"createdDate"`
	UpdatedDate    time.Time `json:"updatedDate"`
	AutoDeleteDate time.Time `json:"autoDeleteDate"`
}

// Expired reports whether the session has passed its auto-delete date.
func (s *RecordingSession) Expired(now time.Time) bool {
	return s.AutoDeleteDate.Before(now)
}

// TranscriptionRecord is the single transcript of a session. Re-transcription
// overwrites the text and segments in place; the record identity and creation
// date survive, so at most one record ever exists per session.
type TranscriptionRecord struct {
	ID          string                 `json:"id"`
	SessionID   string                 `json:"sessionId"`
	Text        string                 `json:"text"`
	Segments    []TranscriptionSegment `json:"segments"`
	Provider    string                 `json:"provider"`
	CreatedDate time.Time              `json:"createdDate"`
	UpdatedDate time.Time              `json:"updatedDate"`
}

// TranscriptionSegment is an immutable span of transcribed speech.
// Start < End, offsets are non-negative, confidence is clamped to [0,1].
type TranscriptionSegment struct {
	Start        time.Duration `json:"start"`
	End          time.Duration `json:"end"`
	Text         string        `json:"text"`
	SpeakerLabel string        `json:"speakerLabel,omitempty"`
	Confidence   float64       `json:"confidence"`
}

// Transcript is a speech engine's raw result before it is attached to a
// session as a TranscriptionRecord.
type Transcript struct {
	Text     string
	Segments []TranscriptionSegment
}
