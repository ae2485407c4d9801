// Package protocol defines the wire messages of the story session protocol
// and the schema descriptors they are encoded under.
//
// Every shape is declared once as a schema descriptor and interpreted into a
// JSON codec. Decoding is generic structural deserialization: a frame that
// parses but diverges from the declared shape still decodes, and the
// divergence surfaces as zero values when fields are read. The sender is
// trusted to honor the shared descriptors.
package protocol

import (
	"github.com/storyloom/storyloom/internal/platform/schema"
	"github.com/storyloom/storyloom/internal/platform/schema/jsoncodec"
)

// Client message types.
const (
	TypeInit       = "init"
	TypeUserAction = "user-action"
)

// Server message types.
const (
	TypeEvent            = "event"
	TypeWorking          = "working"
	TypeUserActionResult = "user-action-result"
)

// Event types.
const (
	EventStory      = "story"
	EventJoined     = "joined"
	EventLeft       = "left"
	EventUserAction = "user-action"
)

// Action types.
const (
	ActionSay = "say"
	ActionDo  = "do"
)

// User action results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Action is a user-submitted contribution.
type Action struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Event is one immutable fact in a room's log.
type Event struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	User   string  `json:"user,omitempty"`
	Action *Action `json:"action,omitempty"`
}

// ClientMessage is one inbound frame: the handshake init or a user action.
type ClientMessage struct {
	Type   string  `json:"type"`
	Name   string  `json:"name,omitempty"`
	ID     string  `json:"id,omitempty"`
	Action *Action `json:"action,omitempty"`
}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	Type   string `json:"type"`
	Event  *Event `json:"event,omitempty"`
	ID     string `json:"id,omitempty"`
	Result string `json:"result,omitempty"`
}

// Descriptors, built once and shared across interpreters.
var (
	// ActionSchema describes say/do contributions.
	ActionSchema = schema.TaggedUnion("type", map[string]schema.Node{
		ActionSay: schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(ActionSay)},
			schema.Field{Name: "text", Value: schema.String()},
		),
		ActionDo: schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(ActionDo)},
			schema.Field{Name: "text", Value: schema.String()},
		),
	})

	// EventSchema describes room log entries.
	EventSchema = schema.TaggedUnion("type", map[string]schema.Node{
		EventStory: schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(EventStory)},
			schema.Field{Name: "text", Value: schema.String()},
		),
		EventJoined: schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(EventJoined)},
			schema.Field{Name: "user", Value: schema.String()},
		),
		EventLeft: schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(EventLeft)},
			schema.Field{Name: "user", Value: schema.String()},
		),
		EventUserAction: schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(EventUserAction)},
			schema.Field{Name: "user", Value: schema.String()},
			schema.Field{Name: "action", Value: ActionSchema},
		),
	})

	// InitMessageSchema describes the handshake-only init message.
	InitMessageSchema = schema.Struct(
		schema.Field{Name: "type", Value: schema.Literal(TypeInit)},
		schema.Field{Name: "name", Value: schema.String()},
	)

	// ClientMessageSchema describes every inbound frame.
	ClientMessageSchema = schema.Union(
		InitMessageSchema,
		schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(TypeUserAction)},
			schema.Field{Name: "id", Value: schema.String()},
			schema.Field{Name: "action", Value: ActionSchema},
		),
	)

	// ServerMessageSchema describes every outbound frame.
	ServerMessageSchema = schema.Union(
		schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(TypeEvent)},
			schema.Field{Name: "event", Value: EventSchema},
		),
		schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(TypeWorking)},
		),
		schema.Struct(
			schema.Field{Name: "type", Value: schema.Literal(TypeUserActionResult)},
			schema.Field{Name: "id", Value: schema.String()},
			schema.Field{Name: "result", Value: schema.Literal(ResultAccepted, ResultRejected)},
		),
	)
)

// interpreter holds the process-wide JSON interpretation of the descriptors.
var interpreter = jsoncodec.New()

// DecodeInitMessage parses one handshake frame.
func DecodeInitMessage(text string) (ClientMessage, error) {
	value, err := interpreter.Codec(InitMessageSchema).Decode(text)
	if err != nil {
		return ClientMessage{}, err
	}
	return clientMessageFromValue(value), nil
}

// DecodeClientMessage parses one full-protocol inbound frame.
func DecodeClientMessage(text string) (ClientMessage, error) {
	value, err := interpreter.Codec(ClientMessageSchema).Decode(text)
	if err != nil {
		return ClientMessage{}, err
	}
	return clientMessageFromValue(value), nil
}

// EncodeServerMessage serializes one outbound frame.
func EncodeServerMessage(msg ServerMessage) (string, error) {
	return interpreter.Codec(ServerMessageSchema).Encode(msg)
}

// EncodeEvent serializes one event as it appears inside event frames.
func EncodeEvent(evt Event) (string, error) {
	return interpreter.Codec(EventSchema).Encode(evt)
}

// DecodeEvent parses one stored event payload.
func DecodeEvent(text string) (Event, error) {
	value, err := interpreter.Codec(EventSchema).Decode(text)
	if err != nil {
		return Event{}, err
	}
	return EventFromValue(value), nil
}

// clientMessageFromValue plucks client message fields from a decoded value.
// Missing or mistyped members become zero values, per the codec trust
// boundary.
func clientMessageFromValue(value any) ClientMessage {
	obj, _ := value.(map[string]any)
	msg := ClientMessage{
		Type: stringField(obj, "type"),
		Name: stringField(obj, "name"),
		ID:   stringField(obj, "id"),
	}
	if action, ok := obj["action"].(map[string]any); ok {
		msg.Action = &Action{
			Type: stringField(action, "type"),
			Text: stringField(action, "text"),
		}
	}
	return msg
}

// EventFromValue plucks event fields from a decoded value.
func EventFromValue(value any) Event {
	obj, _ := value.(map[string]any)
	evt := Event{
		Type: stringField(obj, "type"),
		Text: stringField(obj, "text"),
		User: stringField(obj, "user"),
	}
	if action, ok := obj["action"].(map[string]any); ok {
		evt.Action = &Action{
			Type: stringField(action, "type"),
			Text: stringField(action, "text"),
		}
	}
	return evt
}

func stringField(obj map[string]any, key string) string {
	text, _ := obj[key].(string)
	return text
}
