// ABOUTME: Conversational voice service event definitions
// ABOUTME: Models the wire protocol as a closed tagged variant with an unknown fallback
package convai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EventType identifies a known inbound event kind.
type EventType string

const (
	EventAudio          EventType = "audio"
	EventAgentResponse  EventType = "agent_response"
	EventUserTranscript EventType = "user_transcript"
	EventInterruption   EventType = "interruption"
	EventPing           EventType = "ping"
	EventMetadata       EventType = "conversation_initiation_metadata"

	// EventUnknown marks event kinds this client does not handle.
	// They are ignored, never treated as errors.
	EventUnknown EventType = "unknown"
)

// Event is the decoded form of one inbound message. Exactly one payload
// field is non-nil, matching Type; unknown kinds carry only RawType.
type Event struct {
	Type           EventType
	Audio          *AudioEvent
	AgentResponse  *AgentResponseEvent
	UserTranscript *UserTranscriptEvent
	Ping           *PingEvent
	Metadata       *MetadataEvent
	RawType        string
}

// AudioEvent carries one base64-encoded PCM chunk. EventID is the
// service's sequence identifier; arrival order is trusted as playback
// order, the id is kept for logging only.
type AudioEvent struct {
	AudioBase64 string `json:"audio_base_64"`
	EventID     int    `json:"event_id"`
}

// DecodePayload returns the raw PCM bytes of the chunk.
func (e *AudioEvent) DecodePayload() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid audio payload: %w", err)
	}
	return data, nil
}

// AgentResponseEvent carries the agent's spoken text.
type AgentResponseEvent struct {
	AgentResponse string `json:"agent_response"`
}

// UserTranscriptEvent carries the transcription of the user's speech.
type UserTranscriptEvent struct {
	UserTranscript string `json:"user_transcript"`
}

// PingEvent is a keepalive probe; the client answers with a pong
// carrying the same event id.
type PingEvent struct {
	EventID int `json:"event_id"`
	PingMs  int `json:"ping_ms,omitempty"`
}

// MetadataEvent announces the conversation id and the out-of-band audio
// format for subsequent audio events.
type MetadataEvent struct {
	ConversationID string `json:"conversation_id"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	BitDepth       int    `json:"bit_depth"`
}

// envelope is the wire shape of inbound messages: a type tag plus one
// nested payload object named after the tag.
type envelope struct {
	Type           string               `json:"type"`
	Audio          *AudioEvent          `json:"audio_event,omitempty"`
	AgentResponse  *AgentResponseEvent  `json:"agent_response_event,omitempty"`
	UserTranscript *UserTranscriptEvent `json:"user_transcription_event,omitempty"`
	Ping           *PingEvent           `json:"ping_event,omitempty"`
	Metadata       *MetadataEvent       `json:"conversation_initiation_metadata_event,omitempty"`
}

// ParseEvent decodes one inbound message. Unrecognized type tags produce
// an EventUnknown event, not an error; malformed JSON is an error.
func ParseEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}

	switch EventType(env.Type) {
	case EventAudio:
		if env.Audio == nil {
			return Event{}, fmt.Errorf("audio event missing payload")
		}
		return Event{Type: EventAudio, Audio: env.Audio}, nil
	case EventAgentResponse:
		if env.AgentResponse == nil {
			return Event{}, fmt.Errorf("agent_response event missing payload")
		}
		return Event{Type: EventAgentResponse, AgentResponse: env.AgentResponse}, nil
	case EventUserTranscript:
		if env.UserTranscript == nil {
			return Event{}, fmt.Errorf("user_transcript event missing payload")
		}
		return Event{Type: EventUserTranscript, UserTranscript: env.UserTranscript}, nil
	case EventInterruption:
		return Event{Type: EventInterruption}, nil
	case EventPing:
		if env.Ping == nil {
			return Event{}, fmt.Errorf("ping event missing payload")
		}
		return Event{Type: EventPing, Ping: env.Ping}, nil
	case EventMetadata:
		if env.Metadata == nil {
			return Event{}, fmt.Errorf("metadata event missing payload")
		}
		return Event{Type: EventMetadata, Metadata: env.Metadata}, nil
	default:
		return Event{Type: EventUnknown, RawType: env.Type}, nil
	}
}

// Outbound message shapes.

// userAudioChunk carries one captured PCM window to the service.
type userAudioChunk struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

// userMessage carries typed user text to the service.
type userMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// userAudioEnd tells the service the utterance is complete.
type userAudioEnd struct {
	Type string `json:"type"`
}

// pong answers a ping.
type pong struct {
	Type    string `json:"type"`
	EventID int    `json:"event_id"`
}
