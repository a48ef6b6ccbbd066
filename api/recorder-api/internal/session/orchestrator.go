// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_audio "github.com/rapidaai/scribe/api/recorder-api/internal/audio"
	internal_store "github.com/rapidaai/scribe/api/recorder-api/internal/store"
	internal_transcriber "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

const (
	// liveDrainTimeout bounds how long a stop waits for the live recognizer
	// to flush its remaining results.
	liveDrainTimeout = 10 * time.Second

	// batchTimeout bounds one whole-recording transcription attempt.
	batchTimeout = 5 * time.Minute
)

// RecorderFactory builds the audio staging recorder for one session.
type RecorderFactory func() (internal_type.Recorder, error)

// StartOptions are the per-session knobs a start request may carry. Nil or
// empty fields fall back to the configured defaults.
type StartOptions struct {
	Title    string
	Encrypt  *bool
	Live     *bool
	Language string
}

// Orchestrator drives a recording session through its lifecycle: capture,
// stop, persistence, transcription and sync. At most one session records at
// a time.
//
// The lock only guards the state fields. Key store, capture, cipher, store
// and recognizer calls all happen outside it on snapshotted locals.
type Orchestrator struct {
	logger           commons.Logger
	cfg              *config.AppConfig
	rootCtx          context.Context
	store            internal_store.Store
	keys             internal_type.SecureKeyStore
	cipher           internal_type.Cipher
	device           internal_type.CaptureDevice
	newRecorder      RecorderFactory
	streamingFactory internal_transcriber.StreamingFactory
	batchFactory     internal_transcriber.BatchFactory
	sync             internal_type.SyncClient
	clock            func() time.Time

	mu             sync.Mutex
	state          internal_type.SessionState
	active         *activeSession
	transcribingID string

	jobs sync.WaitGroup
}

type activeSession struct {
	id            string
	title         string
	language      string
	keyIdentifier string
	stream        internal_type.CaptureStream
	recorder      internal_type.Recorder
	live          internal_transcriber.StreamingSpeechToText
	liveBroken    atomic.Bool
	liveText      *liveTranscriptBuilder
	pumpDone      chan struct{}
}

// liveTranscriptBuilder accumulates final live results. The recognizer's
// reader goroutine appends while the stop path reads, so access is locked.
type liveTranscriptBuilder struct {
	mu     sync.Mutex
	failed bool
	parts  []string
}

func (b *liveTranscriptBuilder) append(text string, isFinal bool) {
	if !isFinal || strings.TrimSpace(text) == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parts = append(b.parts, strings.TrimSpace(text))
}

func (b *liveTranscriptBuilder) fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = true
}

// result returns the accumulated transcript and whether it is usable. A
// degraded or empty live pass is not usable; the caller falls back to batch.
func (b *liveTranscriptBuilder) result() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failed || len(b.parts) == 0 {
		return "", false
	}
	return strings.Join(b.parts, " "), true
}

func NewRecordingOrchestrator(
	ctx context.Context,
	logger commons.Logger,
	cfg *config.AppConfig,
	store internal_store.Store,
	keys internal_type.SecureKeyStore,
	cipher internal_type.Cipher,
	device internal_type.CaptureDevice,
	newRecorder RecorderFactory,
	streamingFactory internal_transcriber.StreamingFactory,
	batchFactory internal_transcriber.BatchFactory,
	syncClient internal_type.SyncClient,
) *Orchestrator {
	return &Orchestrator{
		logger:           logger,
		cfg:              cfg,
		rootCtx:          ctx,
		store:            store,
		keys:             keys,
		cipher:           cipher,
		device:           device,
		newRecorder:      newRecorder,
		streamingFactory: streamingFactory,
		batchFactory:     batchFactory,
		sync:             syncClient,
		clock:            time.Now,
		state:            internal_type.StateIdle,
	}
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() internal_type.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ActiveSessionID returns the in-flight session id, if one is recording.
func (o *Orchestrator) ActiveSessionID() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return "", false
	}
	return o.active.id, true
}

// StartSession claims the orchestrator and begins capturing. Only one
// session may record at a time; a second start fails with ErrAlreadyActive
// and leaves no trace. A key provisioning failure is fatal to the attempt
// and also leaves no partial session behind.
func (o *Orchestrator) StartSession(ctx context.Context, opts StartOptions) (string, error) {
	o.mu.Lock()
	if o.active != nil || !o.state.Startable() {
		o.mu.Unlock()
		return "", internal_type.ErrAlreadyActive
	}
	prev := o.state
	o.state = internal_type.StateRecording
	session := &activeSession{
		id:       uuid.New().String(),
		language: strings.TrimSpace(opts.Language),
		liveText: &liveTranscriptBuilder{},
		pumpDone: make(chan struct{}),
	}
	o.active = session
	o.mu.Unlock()

	revert := func() {
		o.mu.Lock()
		o.state = prev
		o.active = nil
		o.mu.Unlock()
	}

	title := opts.Title
	if utils.IsEmpty(title) {
		title = "Recording " + o.clock().Format("2006-01-02 15:04")
	}
	session.title = title

	encrypt := o.cfg.Recording.Encrypt
	if opts.Encrypt != nil {
		encrypt = *opts.Encrypt
	}
	if encrypt {
		keyIdentifier, err := o.keys.Provision(ctx)
		if err != nil {
			revert()
			return "", &internal_type.KeyProvisioningError{Err: err}
		}
		session.keyIdentifier = keyIdentifier
	}

	stream, err := o.device.Open(ctx)
	if err != nil {
		o.discardKey(session.keyIdentifier)
		revert()
		return "", fmt.Errorf("session: capture open failed: %w", err)
	}
	session.stream = stream

	recorder, err := o.newRecorder()
	if err != nil {
		if cerr := stream.Close(ctx); cerr != nil {
			o.logger.Warnf("session: %v", &internal_type.TeardownError{Component: "capture", Err: cerr})
		}
		o.discardKey(session.keyIdentifier)
		revert()
		return "", fmt.Errorf("session: recorder setup failed: %w", err)
	}
	session.recorder = recorder

	// Live transcription is an enhancement: any failure here degrades the
	// session to the batch path instead of failing the start.
	live := o.cfg.Recording.LiveTranscription
	if opts.Live != nil {
		live = *opts.Live
	}
	if live && o.streamingFactory != nil {
		o.openLiveRecognizer(session)
	}

	session.recorder.Start()
	// The pump must always run so stop can rely on pumpDone closing.
	utils.Go(context.Background(), func() { o.pump(session) })

	o.logger.Infow("session: recording started",
		"sessionId", session.id,
		"title", session.title,
		"encrypted", session.keyIdentifier != "",
		"live", session.live != nil,
	)
	return session.id, nil
}

func (o *Orchestrator) openLiveRecognizer(session *activeSession) {
	language := session.language
	if language == "" {
		language = o.cfg.Transcriber.Language
	}
	live, err := o.streamingFactory(o.rootCtx, &internal_transcriber.SpeechToTextInitializeOptions{
		AudioConfig: internal_audio.RAPIDA_INTERNAL_AUDIO_CONFIG,
		Language:    language,
		OnTranscript: func(text string, confidence float64, language string, isFinal bool) {
			session.liveText.append(text, isFinal)
		},
		OnError: func(err error) {
			o.logger.Warnf("session: live recognizer failed, falling back to batch: %v", err)
			session.liveText.fail()
			session.liveBroken.Store(true)
		},
	})
	if err != nil {
		o.logger.Warnf("session: live recognizer unavailable, falling back to batch: %v", err)
		return
	}
	if err := live.Initialize(); err != nil {
		o.logger.Warnf("session: live recognizer unavailable, falling back to batch: %v", err)
		return
	}
	session.live = live
}

func (o *Orchestrator) discardKey(keyIdentifier string) {
	if keyIdentifier == "" {
		return
	}
	if err := o.keys.Delete(context.Background(), keyIdentifier); err != nil {
		o.logger.Warnf("session: provisioned key cleanup failed: %v", err)
	}
}

// pump fans captured frames out to the staging recorder and, when enabled,
// the live recognizer. It exits once the capture stream closes and its
// buffer is drained.
func (o *Orchestrator) pump(session *activeSession) {
	defer close(session.pumpDone)
	for frame := range session.stream.Frames() {
		if err := session.recorder.Record(o.rootCtx, frame); err != nil {
			o.logger.Warnf("session: frame staging failed: %v", err)
		}
		if session.live == nil || session.liveBroken.Load() {
			continue
		}
		if err := session.live.Transform(o.rootCtx, frame); err != nil {
			o.logger.Warnf("session: live recognizer failed, falling back to batch: %v", err)
			session.liveText.fail()
			session.liveBroken.Store(true)
		}
	}
}

// StopSession ends the active recording: capture closes first, the staged
// audio persists (encrypted when the session has a key), and transcription
// continues asynchronously. Calling it with no active recording is a no-op.
//
// A persistence failure moves the session to the failed state: no record is
// written and the provisioned key is retained.
func (o *Orchestrator) StopSession(ctx context.Context) (*internal_type.RecordingSession, error) {
	o.mu.Lock()
	if o.active == nil || o.state != internal_type.StateRecording {
		o.mu.Unlock()
		return nil, nil
	}
	o.state = internal_type.StateStopping
	session := o.active
	o.mu.Unlock()

	// Capture closes before anything else so no frame arrives after stop.
	if err := session.stream.Close(ctx); err != nil {
		o.logger.Warnf("session: %v", &internal_type.TeardownError{Component: "capture", Err: err})
	}
	<-session.pumpDone

	duration := session.recorder.Duration()
	now := o.clock()

	next := internal_type.StatePersisting
	if session.live != nil {
		next = internal_type.StateLiveTranscribing
	}
	o.setState(next)

	var record *internal_type.RecordingSession
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		persisted, err := o.persistSession(gctx, session, duration, now)
		if err != nil {
			return err
		}
		record = persisted
		return nil
	})
	if session.live != nil {
		g.Go(func() error {
			drainCtx, cancel := context.WithTimeout(gctx, liveDrainTimeout)
			defer cancel()
			if err := session.live.Close(drainCtx); err != nil {
				// Teardown failures never fail the stop.
				o.logger.Warnf("session: %v", &internal_type.TeardownError{Component: "recognizer", Err: err})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.mu.Lock()
		o.state = internal_type.StateFailed
		o.active = nil
		o.mu.Unlock()
		o.logger.Errorw("session: persistence failed", "sessionId", session.id, "error", err)
		return nil, err
	}

	o.mu.Lock()
	o.state = internal_type.StateTranscribing
	o.active = nil
	o.transcribingID = session.id
	o.mu.Unlock()

	liveText, liveOK := session.liveText.result()
	var liveProvider string
	if session.live != nil {
		liveProvider = session.live.Name()
	}

	o.jobs.Add(1)
	utils.Go(context.Background(), func() {
		defer o.jobs.Done()
		o.finishTranscription(record, liveText, liveOK, liveProvider)
	})

	o.logger.Infow("session: recording persisted",
		"sessionId", record.ID,
		"duration", record.Duration.String(),
		"encrypted", record.EncryptionEnabled,
	)
	return record, nil
}

func (o *Orchestrator) setState(state internal_type.SessionState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

// persistSession renders the staged audio, seals it when the session has a
// key, and writes payload then record. The key passes through as a local and
// is never retained.
func (o *Orchestrator) persistSession(ctx context.Context, session *activeSession, duration time.Duration, now time.Time) (*internal_type.RecordingSession, error) {
	wav, err := session.recorder.Persist()
	if err != nil {
		return nil, &internal_type.PersistenceError{Op: "render", Err: err}
	}

	payload := wav
	if session.keyIdentifier != "" {
		key, err := o.keys.Resolve(ctx, session.keyIdentifier)
		if err != nil {
			return nil, &internal_type.PersistenceError{Op: "resolve-key", Err: err}
		}
		sealed, err := o.cipher.Encrypt(wav, key)
		if err != nil {
			return nil, &internal_type.PersistenceError{Op: "encrypt", Err: err}
		}
		payload = sealed
	}

	handle, err := o.store.WritePayload(ctx, session.id, payload)
	if err != nil {
		return nil, err
	}

	record := &internal_type.RecordingSession{
		ID:                session.id,
		Title:             session.title,
		StorageHandle:     handle,
		Status:            internal_type.StatusProcessing,
		Duration:          duration,
		EncryptionEnabled: session.keyIdentifier != "",
		KeyIdentifier:     session.keyIdentifier,
		Language:          session.language,
		CreatedDate:       now,
		UpdatedDate:       now,
		AutoDeleteDate:    now.Add(o.cfg.Recording.Retention),
	}
	if err := o.store.Append(ctx, record); err != nil {
		if rerr := o.store.RemovePayload(context.Background(), handle); rerr != nil {
			o.logger.Warnf("session: orphaned payload cleanup failed: %v", rerr)
		}
		return nil, err
	}
	return record, nil
}

// finishTranscription attaches a transcript to a freshly persisted session.
// The live result is used directly when usable; otherwise the stored payload
// is opened transiently and sent through the batch engine. A transcription
// failure still completes the session, with no transcript attached.
func (o *Orchestrator) finishTranscription(record *internal_type.RecordingSession, liveText string, liveOK bool, liveProvider string) {
	defer func() {
		o.mu.Lock()
		o.state = internal_type.StateCompleted
		o.transcribingID = ""
		o.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(o.rootCtx, batchTimeout)
	defer cancel()

	var transcript *internal_type.Transcript
	var provider string
	if liveOK {
		transcript = &internal_type.Transcript{Text: liveText}
		provider = liveProvider
	} else {
		batched, batchProvider, err := o.transcribeStored(ctx, record)
		if err != nil {
			o.logger.Errorw("session: transcription failed, completing without transcript",
				"sessionId", record.ID,
				"error", &internal_type.TranscriptionError{Provider: batchProvider, Err: err},
			)
			o.completeSession(ctx, record, false)
			return
		}
		transcript = batched
		provider = batchProvider
	}

	if err := o.saveTranscript(ctx, record, transcript, provider); err != nil {
		o.logger.Errorw("session: transcript save failed", "sessionId", record.ID, "error", err)
		o.completeSession(ctx, record, false)
		return
	}
	o.completeSession(ctx, record, true)
	o.logger.Infow("session: transcription finished", "sessionId", record.ID, "provider", provider)

	o.publishTranscript(record.Title, transcript.Text)
}

// transcribeStored opens the stored payload, unseals it when encrypted, and
// runs the batch engine. Decrypted audio lives only in memory for the span
// of this call.
func (o *Orchestrator) transcribeStored(ctx context.Context, record *internal_type.RecordingSession) (*internal_type.Transcript, string, error) {
	payload, err := o.store.ReadPayload(ctx, record.StorageHandle)
	if err != nil {
		return nil, "", err
	}

	wav := payload
	if record.EncryptionEnabled {
		key, err := o.keys.Resolve(ctx, record.KeyIdentifier)
		if err != nil {
			return nil, "", err
		}
		opened, err := o.cipher.Decrypt(payload, key)
		if err != nil {
			return nil, "", err
		}
		wav = opened
	}

	engine, err := o.batchFactory(ctx, record.Language)
	if err != nil {
		return nil, "", err
	}
	transcript, err := engine.Transcribe(ctx, wav)
	if err != nil {
		return nil, engine.Name(), err
	}
	return transcript, engine.Name(), nil
}

// saveTranscript persists the transcript, reusing the existing record's
// identity when the session was transcribed before. A session never carries
// more than one transcription record.
func (o *Orchestrator) saveTranscript(ctx context.Context, session *internal_type.RecordingSession, transcript *internal_type.Transcript, provider string) error {
	now := o.clock()
	record := &internal_type.TranscriptionRecord{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		Text:        transcript.Text,
		Segments:    transcript.Segments,
		Provider:    provider,
		CreatedDate: now,
		UpdatedDate: now,
	}
	if existing, err := o.store.GetTranscript(ctx, session.ID); err == nil {
		record.ID = existing.ID
		record.CreatedDate = existing.CreatedDate
	}
	return o.store.SaveTranscript(ctx, record)
}

func (o *Orchestrator) completeSession(ctx context.Context, record *internal_type.RecordingSession, transcriptAvailable bool) {
	record.Status = internal_type.StatusCompleted
	record.TranscriptAvailable = transcriptAvailable
	record.UpdatedDate = o.clock()
	if err := o.store.Update(ctx, record); err != nil {
		o.logger.Errorw("session: record update failed", "sessionId", record.ID, "error", err)
	}
}

// publishTranscript hands the finished transcript to the external sync
// target. It is detached and best-effort: the session outcome never depends
// on it.
func (o *Orchestrator) publishTranscript(title, text string) {
	if o.sync == nil || !o.cfg.Sync.Enabled {
		return
	}
	o.jobs.Add(1)
	utils.Go(context.Background(), func() {
		defer o.jobs.Done()
		ctx, cancel := context.WithTimeout(o.rootCtx, time.Minute)
		defer cancel()
		if err := o.sync.Publish(ctx, title, text, []string{"recording"}); err != nil {
			o.logger.Warnf("session: sync publish failed: %v", err)
		}
	})
}

// Retranscribe reruns batch transcription for a stored session. It is the
// manual retry for sessions whose transcription failed, and also works for
// sessions that already have a transcript: the new text overwrites the old.
func (o *Orchestrator) Retranscribe(ctx context.Context, id string) (*internal_type.RecordingSession, error) {
	o.mu.Lock()
	if o.active != nil && o.active.id == id {
		o.mu.Unlock()
		return nil, fmt.Errorf("session %s is still recording", id)
	}
	if o.transcribingID == id {
		o.mu.Unlock()
		return nil, fmt.Errorf("session %s is already transcribing", id)
	}
	o.mu.Unlock()

	record, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	transcript, provider, err := o.transcribeStored(ctx, record)
	if err != nil {
		return nil, &internal_type.TranscriptionError{Provider: provider, Err: err}
	}
	if err := o.saveTranscript(ctx, record, transcript, provider); err != nil {
		return nil, err
	}
	o.completeSession(ctx, record, true)
	o.logger.Infow("session: re-transcription finished", "sessionId", id, "provider", provider)

	o.publishTranscript(record.Title, transcript.Text)
	return record, nil
}

// DeleteSession removes everything a session left behind. Removal order is
// fixed: record and transcript first, payload second, encryption key last,
// so an interrupted delete never leaves an unreadable payload without its
// key still resolvable.
func (o *Orchestrator) DeleteSession(ctx context.Context, id string) error {
	o.mu.Lock()
	if o.active != nil && o.active.id == id {
		o.mu.Unlock()
		return fmt.Errorf("session %s is still recording", id)
	}
	if o.transcribingID == id {
		o.mu.Unlock()
		return fmt.Errorf("session %s is still transcribing", id)
	}
	o.mu.Unlock()

	record, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := o.store.RemoveTranscript(ctx, id); err != nil {
		return err
	}
	if err := o.store.Remove(ctx, id); err != nil {
		return err
	}
	if record.StorageHandle != "" {
		if err := o.store.RemovePayload(ctx, record.StorageHandle); err != nil {
			return err
		}
	}
	if record.KeyIdentifier != "" {
		if err := o.keys.Delete(ctx, record.KeyIdentifier); err != nil {
			// All user data is already gone; an orphaned key entry is the
			// only residue.
			o.logger.Warnf("session: key cleanup failed for %s: %v", id, err)
		}
	}
	o.logger.Infow("session: deleted", "sessionId", id)
	return nil
}

// GetSession returns one stored session record.
func (o *Orchestrator) GetSession(ctx context.Context, id string) (*internal_type.RecordingSession, error) {
	return o.store.Get(ctx, id)
}

// ListSessions returns all stored session records, newest first.
func (o *Orchestrator) ListSessions(ctx context.Context) ([]*internal_type.RecordingSession, error) {
	return o.store.LoadAll(ctx)
}

// GetTranscript returns a session's transcription record.
func (o *Orchestrator) GetTranscript(ctx context.Context, id string) (*internal_type.TranscriptionRecord, error) {
	if _, err := o.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return o.store.GetTranscript(ctx, id)
}

// Shutdown stops any in-flight recording through the normal stop path and
// waits for detached jobs, bounded by ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	if _, err := o.StopSession(ctx); err != nil {
		o.logger.Errorw("session: shutdown stop failed", "error", err)
	}

	done := make(chan struct{})
	go func() {
		o.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
