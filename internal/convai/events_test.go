// ABOUTME: Tests for conversational event parsing
// ABOUTME: Verifies tagged-variant dispatch and unknown-kind fallback
package convai

import (
	"encoding/base64"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAudioEvent(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0x01, 0x00, 0x02, 0x00})
	data := []byte(`{"type":"audio","audio_event":{"audio_base_64":"` + payload + `","event_id":7}}`)

	event, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}

	want := Event{Type: EventAudio, Audio: &AudioEvent{AudioBase64: payload, EventID: 7}}
	if diff := cmp.Diff(want, event); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}

	pcm, err := event.Audio.DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if len(pcm) != 4 {
		t.Errorf("expected 4 PCM bytes, got %d", len(pcm))
	}
}

func TestParseKnownEvents(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Event
	}{
		{
			name: "agent response",
			data: `{"type":"agent_response","agent_response_event":{"agent_response":"hello there"}}`,
			want: Event{Type: EventAgentResponse, AgentResponse: &AgentResponseEvent{AgentResponse: "hello there"}},
		},
		{
			name: "user transcript",
			data: `{"type":"user_transcript","user_transcription_event":{"user_transcript":"hi"}}`,
			want: Event{Type: EventUserTranscript, UserTranscript: &UserTranscriptEvent{UserTranscript: "hi"}},
		},
		{
			name: "ping",
			data: `{"type":"ping","ping_event":{"event_id":3,"ping_ms":20}}`,
			want: Event{Type: EventPing, Ping: &PingEvent{EventID: 3, PingMs: 20}},
		},
		{
			name: "interruption",
			data: `{"type":"interruption"}`,
			want: Event{Type: EventInterruption},
		},
		{
			name: "metadata",
			data: `{"type":"conversation_initiation_metadata","conversation_initiation_metadata_event":{"conversation_id":"abc","sample_rate":16000,"channels":1,"bit_depth":16}}`,
			want: Event{Type: EventMetadata, Metadata: &MetadataEvent{ConversationID: "abc", SampleRate: 16000, Channels: 1, BitDepth: 16}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseEvent failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseUnknownEventIsNotAnError(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"internal_tentative_agent_response","whatever":{}}`))
	if err != nil {
		t.Fatalf("unknown kinds must not error: %v", err)
	}
	if event.Type != EventUnknown {
		t.Errorf("expected EventUnknown, got %s", event.Type)
	}
	if event.RawType != "internal_tentative_agent_response" {
		t.Errorf("expected raw type preserved, got %q", event.RawType)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"type":`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseEventMissingPayload(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"type":"audio"}`)); err == nil {
		t.Error("expected error for audio event without payload")
	}
}

func TestDecodePayloadInvalidBase64(t *testing.T) {
	e := &AudioEvent{AudioBase64: "!!not base64!!"}
	if _, err := e.DecodePayload(); err == nil {
		t.Error("expected error for invalid base64")
	}
}
