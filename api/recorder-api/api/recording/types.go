package recording_api

import (
	"time"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
)

// startRecordingRequest carries the per-session options. Absent fields fall
// back to the configured defaults.
type startRecordingRequest struct {
	Title    string `json:"title"`
	Encrypt  *bool  `json:"encrypt"`
	Live     *bool  `json:"live"`
	Language string `json:"language"`
}

// recordingResponse is the wire shape of a session record. Storage handles
// and key identifiers stay internal.
type recordingResponse struct {
	Id                  string    `json:"id"`
	Title               string    `json:"title"`
	Status              string    `json:"status"`
	DurationSeconds     float64   `json:"durationSeconds"`
	EncryptionEnabled   bool      `json:"encryptionEnabled"`
	Language            string    `json:"language,omitempty"`
	TranscriptAvailable bool      `json:"transcriptAvailable"`
	CreatedDate         time.Time `json:"createdDate"`
	UpdatedDate         time.Time `json:"updatedDate"`
	AutoDeleteDate      time.Time `json:"autoDeleteDate"`
}

func newRecordingResponse(session *internal_type.RecordingSession) *recordingResponse {
	return &recordingResponse{
		Id:                  session.ID,
		Title:               session.Title,
		Status:              session.Status,
		DurationSeconds:     session.Duration.Seconds(),
		EncryptionEnabled:   session.EncryptionEnabled,
		Language:            session.Language,
		TranscriptAvailable: session.TranscriptAvailable,
		CreatedDate:         session.CreatedDate,
		UpdatedDate:         session.UpdatedDate,
		AutoDeleteDate:      session.AutoDeleteDate,
	}
}

func newRecordingResponses(sessions []*internal_type.RecordingSession) []*recordingResponse {
	out := make([]*recordingResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, newRecordingResponse(session))
	}
	return out
}
