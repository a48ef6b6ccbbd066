// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcriber_google

import (
	"strings"

	"cloud.google.com/go/speech/apiv2/speechpb"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
)

// normalizeRecognizeResponse flattens a recognize response into one
// transcript. Every non-empty result becomes a segment; the full text is the
// results joined in order.
func normalizeRecognizeResponse(response *speechpb.RecognizeResponse) *internal_type.Transcript {
	transcript := &internal_type.Transcript{}
	var parts []string

	for _, result := range response.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		alternative := result.GetAlternatives()[0]
		text := strings.TrimSpace(alternative.GetTranscript())
		if text == "" {
			continue
		}
		parts = append(parts, text)

		segment := internal_type.TranscriptionSegment{
			Text:       text,
			Confidence: clamp01(float64(alternative.GetConfidence())),
			End:        result.GetResultEndOffset().AsDuration(),
		}
		if words := alternative.GetWords(); len(words) > 0 {
			segment.Start = words[0].GetStartOffset().AsDuration()
			if segment.End == 0 {
				segment.End = words[len(words)-1].GetEndOffset().AsDuration()
			}
		}
		transcript.Segments = append(transcript.Segments, segment)
	}

	transcript.Text = strings.Join(parts, " ")
	return transcript
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
