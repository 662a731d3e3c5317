// ABOUTME: Conversational agent over the OpenAI chat completion API
// ABOUTME: Replays conversation history and parses strict-JSON replies
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

const defaultModel = openai.ChatModelGPT4oMini

// promptTemplate wraps the latest user message with persona framing and
// retrieved context. The model is instructed to answer as strict JSON.
const promptTemplate = `You are %s, a virtual representation of %s.
You are talking to the user as %s would, in first person on their behalf.

User question:
%s

Relevant context:
%s

Generate a STRICT JSON object with the keys "long_answer", "short_answer", and "media_urls". Example:
{
  "long_answer": "...",
  "short_answer": "...",
  "media_urls": ["...", "..."]
}

Where:
- long_answer is a very short response to the user, using the context if relevant
- short_answer is a concise summary
- media_urls is a list of one or more URLs IF relevant, otherwise an empty list.

If any URLs in the context seem relevant, include them in "media_urls".
Output ONLY valid JSON, with no extra commentary.`

// Turn is one entry of conversation history.
type Turn struct {
	Speaker string // "user" or "agent"
	Text    string
}

// Reply is the agent's parsed answer.
type Reply struct {
	Long      string
	Short     string
	MediaURLs []string
}

// Config holds agent configuration.
type Config struct {
	APIKey      string
	BaseURL     string // override for testing; empty uses the real API
	Model       string
	Temperature float64
	AgentName   string // e.g. "Version One"
	PersonaName string // the person the agent represents
}

// Agent keeps per-conversation history and calls the chat completion API.
// History holds the user's actual text and the agent's short answers;
// URLs and context never enter history.
type Agent struct {
	client      openai.Client
	logger      zerolog.Logger
	model       string
	temperature float64
	agentName   string
	personaName string

	mu      sync.Mutex
	history []Turn
}

// New creates an agent.
func New(cfg Config, logger zerolog.Logger) *Agent {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(defaultModel)
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	return &Agent{
		client:      openai.NewClient(opts...),
		logger:      logger.With().Str("component", "agent").Logger(),
		model:       model,
		temperature: temperature,
		agentName:   cfg.AgentName,
		personaName: cfg.PersonaName,
	}
}

// Respond sends the conversation to the model and parses its reply.
// contextStr is retrieved background material for the latest message;
// it is injected into the prompt but never recorded in history.
func (a *Agent) Respond(ctx context.Context, userMessage, contextStr string) (*Reply, error) {
	a.mu.Lock()
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(a.history)+1)
	for _, turn := range a.history {
		if turn.Speaker == "user" {
			messages = append(messages, openai.UserMessage(turn.Text))
		} else {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}
	a.mu.Unlock()

	prompt := fmt.Sprintf(promptTemplate,
		a.agentName, a.personaName, a.personaName, userMessage, contextStr)
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    messages,
		Temperature: openai.Float(a.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	reply := parseReply(resp.Choices[0].Message.Content, a.logger)

	a.mu.Lock()
	a.history = append(a.history,
		Turn{Speaker: "user", Text: userMessage},
		Turn{Speaker: "agent", Text: reply.Short},
	)
	a.mu.Unlock()

	return reply, nil
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Turn, len(a.history))
	copy(out, a.history)
	return out
}

// Reset clears the conversation history.
func (a *Agent) Reset() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

// fallbackShort is spoken when the model breaks the JSON contract; the
// raw text can be arbitrarily long and only suits the display side.
const fallbackShort = "Here is a short summary."

// parseReply decodes the model's strict-JSON answer. A reply that is not
// valid JSON falls back to the whole text as the long answer.
func parseReply(raw string, logger zerolog.Logger) *Reply {
	var parsed struct {
		LongAnswer  string   `json:"long_answer"`
		ShortAnswer string   `json:"short_answer"`
		MediaURLs   []string `json:"media_urls"`
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		logger.Warn().Err(err).Msg("model reply was not valid JSON, using raw text")
		return &Reply{Long: raw, Short: fallbackShort}
	}

	return &Reply{
		Long:      strings.TrimSpace(parsed.LongAnswer),
		Short:     strings.TrimSpace(parsed.ShortAnswer),
		MediaURLs: parsed.MediaURLs,
	}
}
