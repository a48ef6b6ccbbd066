// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_deepgram

import (
	"strings"
	"time"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/utils"
)

// =============================================================================
// Deepgram Response Normalization
// =============================================================================

const (
	liveMessageResults  = "Results"
	liveMessageMetadata = "Metadata"
)

// liveResponse is the subset of Deepgram's streaming payload the session
// consumes.
type liveResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// transcript returns the best alternative carried by the message, if any.
func (r *liveResponse) transcript() (string, float64, bool) {
	if len(r.Channel.Alternatives) == 0 {
		return "", 0, false
	}
	alt := r.Channel.Alternatives[0]
	if strings.TrimSpace(alt.Transcript) == "" {
		return "", 0, false
	}
	return alt.Transcript, alt.Confidence, true
}

// wordSpan is one recognized word with its timing, provider-neutral.
type wordSpan struct {
	Text       string
	Start      float64 // seconds
	End        float64 // seconds
	Confidence float64
}

// segmentGap is the pause width, in seconds, that splits two words into
// separate segments.
const segmentGap = 0.8

func segmentsFromSpans(spans []wordSpan) []internal_type.TranscriptionSegment {
	if len(spans) == 0 {
		return nil
	}

	var segments []internal_type.TranscriptionSegment
	var words []string
	var confidences []float32
	start, end := spans[0].Start, spans[0].End

	flush := func() {
		if len(words) == 0 {
			return
		}
		segments = append(segments, internal_type.TranscriptionSegment{
			Start:      secondsToDuration(start),
			End:        secondsToDuration(end),
			Text:       strings.Join(words, " "),
			Confidence: clamp01(float64(utils.AverageFloat32(confidences))),
		})
		words = words[:0]
		confidences = confidences[:0]
	}

	for _, span := range spans {
		if len(words) > 0 && span.Start-end > segmentGap {
			flush()
			start = span.Start
		}
		words = append(words, span.Text)
		confidences = append(confidences, float32(span.Confidence))
		end = span.End
	}
	flush()
	return segments
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
