package runner

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventType is the tag of a decoded protocol line
type EventType string

const (
	EventSystem    EventType = "system"
	EventAssistant EventType = "assistant"
	EventUser      EventType = "user"
	EventResult    EventType = "result"
	EventUnknown   EventType = "unknown"
)

// Event is one decoded line of the agent's stream-json output. The concrete
// type is one of *SystemEvent, *AssistantEvent, *UserEvent, *ResultEvent or
// *UnknownEvent.
type Event interface {
	Type() EventType
	// SessionID is empty until the agent has assigned a session.
	SessionID() string
	// Payload is the full decoded line.
	Payload() map[string]any
}

type eventBase struct {
	sessionID string
	payload   map[string]any
}

func (e eventBase) SessionID() string       { return e.sessionID }
func (e eventBase) Payload() map[string]any { return e.payload }

// SystemEvent is emitted by the agent for init and housekeeping notices
type SystemEvent struct {
	eventBase
	Subtype string
}

func (*SystemEvent) Type() EventType { return EventSystem }

// AssistantEvent carries one assistant message with its ordered content blocks
type AssistantEvent struct {
	eventBase
	Blocks []ContentBlock
}

func (*AssistantEvent) Type() EventType { return EventAssistant }

// Text joins the text blocks of the message with newlines
func (e *AssistantEvent) Text() string {
	var texts []string
	for _, b := range e.Blocks {
		if b.Type == "text" {
			texts = append(texts, b.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ToolUses returns the tool_use blocks of the message
func (e *AssistantEvent) ToolUses() []ContentBlock {
	var tools []ContentBlock
	for _, b := range e.Blocks {
		if b.Type == "tool_use" {
			tools = append(tools, b)
		}
	}
	return tools
}

// UserEvent echoes user turns, typically tool results fed back to the agent
type UserEvent struct {
	eventBase
}

func (*UserEvent) Type() EventType { return EventUser }

// ResultEvent closes one invocation of the agent
type ResultEvent struct {
	eventBase
	Subtype      string
	IsError      bool
	Result       string
	NumTurns     int
	DurationMS   int64
	TotalCostUSD float64
}

func (*ResultEvent) Type() EventType { return EventResult }

// UnknownEvent is any line whose type is missing or not recognised
type UnknownEvent struct {
	eventBase
	// Declared is the type the line declared, empty when it had none.
	Declared string
}

func (*UnknownEvent) Type() EventType { return EventUnknown }

// ContentBlock is one block of an assistant message
type ContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// ErrNotObject is returned by Decode for valid JSON that is not an object
var ErrNotObject = errors.New("protocol line is not a JSON object")

// envelope holds the typed view of the fields the variants need. Payload
// keeps the untyped map so nothing the agent sent is lost.
type envelope struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	SessionID string `json:"session_id"`
	Message   struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	IsError      bool    `json:"is_error"`
	Result       string  `json:"result"`
	NumTurns     int     `json:"num_turns"`
	DurationMS   int64   `json:"duration_ms"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// Decode parses one trimmed, non-empty protocol line
func Decode(line []byte) (Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(line, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrNotObject
	}

	var env envelope
	// Fields with unexpected JSON types fall back to zero values rather than
	// rejecting an otherwise valid line.
	_ = json.Unmarshal(line, &env)

	base := eventBase{sessionID: env.SessionID, payload: payload}

	switch EventType(env.Type) {
	case EventSystem:
		return &SystemEvent{eventBase: base, Subtype: env.Subtype}, nil
	case EventAssistant:
		return &AssistantEvent{eventBase: base, Blocks: decodeBlocks(env.Message.Content)}, nil
	case EventUser:
		return &UserEvent{eventBase: base}, nil
	case EventResult:
		return &ResultEvent{
			eventBase:    base,
			Subtype:      env.Subtype,
			IsError:      env.IsError,
			Result:       env.Result,
			NumTurns:     env.NumTurns,
			DurationMS:   env.DurationMS,
			TotalCostUSD: env.TotalCostUSD,
		}, nil
	default:
		return &UnknownEvent{eventBase: base, Declared: env.Type}, nil
	}
}

// decodeBlocks decodes content blocks one by one so a single odd block does
// not hide the rest of the message. String content (used by some user
// messages) yields no blocks.
func decodeBlocks(raw json.RawMessage) []ContentBlock {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	blocks := make([]ContentBlock, 0, len(items))
	for _, item := range items {
		var b ContentBlock
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}
