// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zaf/g711"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

const (
	EncodingLinear16 = "linear16"
	EncodingMulaw    = "mulaw"

	// frameBufferCapacity holds roughly five seconds of 20ms frames, enough
	// to ride out a slow consumer without blocking the gateway socket.
	frameBufferCapacity = 256
)

// GatewayDevice adapts the recording gateway socket into a capture device.
// The transport layer pushes raw frames in with Push; the session side opens
// the device and consumes the stream.
type GatewayDevice struct {
	logger commons.Logger

	mu     sync.Mutex
	active *gatewayStream
}

func NewGatewayDevice(logger commons.Logger) *GatewayDevice {
	return &GatewayDevice{logger: logger}
}

func (d *GatewayDevice) Open(ctx context.Context) (internal_type.CaptureStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return nil, fmt.Errorf("capture: device already open")
	}
	stream := &gatewayStream{
		logger:  d.logger,
		frames:  make(chan []byte, frameBufferCapacity),
		release: d.release,
	}
	d.active = stream
	d.logger.Info("capture: device opened")
	return stream, nil
}

// Push routes one audio frame from the gateway socket into the open stream.
// Mulaw frames are decoded to LINEAR16 before delivery.
func (d *GatewayDevice) Push(data []byte, encoding string) error {
	d.mu.Lock()
	stream := d.active
	d.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("capture: no open stream")
	}
	return stream.push(data, encoding)
}

func (d *GatewayDevice) release(s *gatewayStream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == s {
		d.active = nil
	}
}

type gatewayStream struct {
	logger  commons.Logger
	release func(*gatewayStream)

	mu      sync.Mutex
	closed  bool
	dropped uint64
	frames  chan []byte
}

func (s *gatewayStream) Frames() <-chan []byte { return s.frames }

func (s *gatewayStream) push(data []byte, encoding string) error {
	if len(data) == 0 {
		return nil
	}

	var frame []byte
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingMulaw:
		frame = g711.DecodeUlaw(data)
	case EncodingLinear16, "":
		frame = make([]byte, len(data))
		copy(frame, data)
	default:
		return fmt.Errorf("capture: unsupported encoding %q", encoding)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("capture: stream closed")
	}
	select {
	case s.frames <- frame:
	default:
		s.dropped++
		s.logger.Warnf("capture: frame buffer full, dropped frame (%d dropped so far)", s.dropped)
	}
	return nil
}

// Close marks the stream closed and closes the frame channel. Frames already
// buffered stay readable until drained; only then does the channel report
// closed to the consumer.
func (s *gatewayStream) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.frames)
	s.mu.Unlock()

	s.release(s)
	s.logger.Info("capture: stream closed")
	return nil
}
