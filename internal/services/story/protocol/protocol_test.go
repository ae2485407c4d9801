package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeInitMessage(t *testing.T) {
	msg, err := DecodeInitMessage(`{"type":"init","name":"Ada"}`)
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if msg.Type != TypeInit {
		t.Fatalf("type = %q, want %q", msg.Type, TypeInit)
	}
	if msg.Name != "Ada" {
		t.Fatalf("name = %q, want %q", msg.Name, "Ada")
	}
}

func TestDecodeClientMessageUserAction(t *testing.T) {
	msg, err := DecodeClientMessage(`{"type":"user-action","id":"1","action":{"type":"say","text":"hello"}}`)
	if err != nil {
		t.Fatalf("decode client message: %v", err)
	}
	if msg.Type != TypeUserAction || msg.ID != "1" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Action == nil || msg.Action.Type != ActionSay || msg.Action.Text != "hello" {
		t.Fatalf("action = %+v", msg.Action)
	}
}

func TestDecodeClientMessageToleratesShapeDivergence(t *testing.T) {
	// A parseable frame that does not match the declared shape decodes into
	// zero values rather than failing; validation is the sender's burden.
	msg, err := DecodeClientMessage(`{"type":7,"action":"nope"}`)
	if err != nil {
		t.Fatalf("decode divergent frame: %v", err)
	}
	if msg.Type != "" || msg.Action != nil {
		t.Fatalf("message = %+v, want zero values", msg)
	}
}

func TestDecodeClientMessageFailsOnMalformedText(t *testing.T) {
	if _, err := DecodeClientMessage("{"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEncodeServerMessageWireShapes(t *testing.T) {
	cases := []struct {
		name string
		msg  ServerMessage
		want string
	}{
		{
			"working",
			ServerMessage{Type: TypeWorking},
			`{"type":"working"}`,
		},
		{
			"result",
			ServerMessage{Type: TypeUserActionResult, ID: "1", Result: ResultAccepted},
			`{"type":"user-action-result","id":"1","result":"accepted"}`,
		},
		{
			"story event",
			ServerMessage{Type: TypeEvent, Event: &Event{Type: EventStory, Text: "Once"}},
			`{"type":"event","event":{"type":"story","text":"Once"}}`,
		},
		{
			"user action event",
			ServerMessage{Type: TypeEvent, Event: &Event{
				Type:   EventUserAction,
				User:   "Ada",
				Action: &Action{Type: ActionDo, Text: "open the door"},
			}},
			`{"type":"event","event":{"type":"user-action","user":"Ada","action":{"type":"do","text":"open the door"}}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeServerMessage(tc.msg)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got != tc.want {
				t.Fatalf("encoded = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEventPayloadRoundTrip(t *testing.T) {
	evt := Event{Type: EventUserAction, User: "Ada", Action: &Action{Type: ActionSay, Text: "hi"}}
	text, err := EncodeEvent(evt)
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	got, err := DecodeEvent(text)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if got.Type != evt.Type || got.User != evt.User {
		t.Fatalf("event = %+v, want %+v", got, evt)
	}
	if got.Action == nil || *got.Action != *evt.Action {
		t.Fatalf("action = %+v, want %+v", got.Action, evt.Action)
	}
}

func TestServerMessageOmitsEmptyMembers(t *testing.T) {
	text, err := EncodeServerMessage(ServerMessage{Type: TypeWorking})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		t.Fatalf("parse encoded frame: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("frame members = %d (%s), want only type", len(raw), text)
	}
	if strings.Contains(text, "event") {
		t.Fatalf("frame = %s, expected no event member", text)
	}
}
