// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	internal_audio "github.com/rapidaai/scribe/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

const (
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
)

var audioConfig = internal_audio.RAPIDA_INTERNAL_AUDIO_CONFIG

// chunk is a recorded audio fragment placed at a specific position on the
// timeline. ByteOffset is the byte position relative to Start().
type chunk struct {
	ByteOffset int
	Data       []byte
}

type audioRecorder struct {
	logger    commons.Logger
	mu        sync.Mutex
	startTime time.Time
	started   bool
	chunks    []chunk
	// cursor is the byte position just past the last written byte. The mic
	// delivers at real-time rate, so wall-clock placement is correct; the
	// cursor only guards against overlap when a frame arrives early.
	cursor int
	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time
}

func NewDefaultAudioRecorder(logger commons.Logger) (internal_type.Recorder, error) {
	return &audioRecorder{
		logger: logger,
		clock:  time.Now,
	}, nil
}

// Start begins the recording session. Audio is placed on the timeline based
// on when it arrives relative to this moment.
func (r *audioRecorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTime = r.clock()
	r.started = true
}

func bytesPerSecond() int {
	return int(audioConfig.SampleRate) * int(audioConfig.Channels) * AudioBytesPerSample
}

// durationBytes converts a wall-clock duration to a frame-aligned byte count.
func durationBytes(d time.Duration) int {
	raw := int(d.Seconds() * float64(bytesPerSecond()))
	frameSize := AudioBytesPerSample * int(audioConfig.Channels)
	return (raw / frameSize) * frameSize
}

// Record places a frame at the current wall-clock position. Each chunk is
// positioned based on WHEN it arrives, not just appended, so delivery stalls
// show up as silence instead of shifting later audio earlier.
func (r *audioRecorder) Record(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	wallOffset := 0
	if r.started {
		wallOffset = durationBytes(r.clock().Sub(r.startTime))
	}
	offset := wallOffset
	if r.cursor > offset {
		offset = r.cursor
	}

	// Copy to avoid caller mutations.
	buf := make([]byte, len(data))
	copy(buf, data)

	r.chunks = append(r.chunks, chunk{
		ByteOffset: offset,
		Data:       buf,
	})
	r.cursor = offset + len(buf)
	return nil
}

// Duration is the elapsed timeline since Start.
func (r *audioRecorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return 0
	}
	return r.clock().Sub(r.startTime)
}

// Persist renders one WAV spanning the full session (Start → Persist). Chunks
// are painted at their recorded timeline positions; gaps are silence.
func (r *audioRecorder) Persist() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.chunks) == 0 {
		return nil, fmt.Errorf("no audio chunks to persist")
	}

	// Total session duration in bytes.
	sessionBytes := 0
	if r.started {
		sessionBytes = durationBytes(r.clock().Sub(r.startTime))
	}

	// Minimum buffer size: max(sessionBytes, furthest chunk end).
	totalLen := sessionBytes
	for _, c := range r.chunks {
		end := c.ByteOffset + len(c.Data)
		if end > totalLen {
			totalLen = end
		}
	}

	pcm := make([]byte, totalLen)
	audioBytes := 0
	for _, c := range r.chunks {
		copy(pcm[c.ByteOffset:], c.Data)
		audioBytes += len(c.Data)
	}

	r.logger.Info(fmt.Sprintf(
		"Audio persist: audio=%d (%.2fs), totalLen=%d (%.2fs), chunks=%d",
		audioBytes, float64(audioBytes)/float64(bytesPerSecond()),
		totalLen, float64(totalLen)/float64(bytesPerSecond()),
		len(r.chunks),
	))

	return createWAVFile(pcm)
}

func createWAVFile(pcmData []byte) ([]byte, error) {
	var buf bytes.Buffer
	sampleRate := audioConfig.SampleRate
	channels := audioConfig.Channels
	bps := int(sampleRate) * int(channels) * AudioBytesPerSample

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(bps))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBytesPerSample*int(channels)))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBitsPerSample))

	// data chunk
	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)

	return buf.Bytes(), nil
}
