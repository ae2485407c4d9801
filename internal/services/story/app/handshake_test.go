package server

import (
	"io"
	"testing"
)

func TestHandshakeReturnsTrimmedName(t *testing.T) {
	transport := &fakeTransport{
		inbound: []string{`{"type":"init","name":"  ada  "}`},
	}

	name, err := Handshake(transport)
	if err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}
	if name != "ada" {
		t.Fatalf("name = %q, want %q", name, "ada")
	}
	if transport.isClosed() {
		t.Fatal("handshake closed the transport")
	}
}

func TestHandshakeSkipsMalformedFrames(t *testing.T) {
	transport := &fakeTransport{
		inbound: []string{
			`{garbage`,
			`{"type":"init","name":"brontë"}`,
		},
	}

	name, err := Handshake(transport)
	if err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}
	if name != "brontë" {
		t.Fatalf("name = %q, want %q", name, "brontë")
	}
}

func TestHandshakeFailsWhenTransportCloses(t *testing.T) {
	transport := &fakeTransport{readErr: io.EOF}

	if _, err := Handshake(transport); err == nil {
		t.Fatal("expected handshake error when transport closes")
	}
	if len(transport.writtenFrames()) != 0 {
		t.Fatalf("handshake wrote %d frames, want 0", len(transport.writtenFrames()))
	}
}

func TestHandshakeAcceptsMissingName(t *testing.T) {
	transport := &fakeTransport{
		inbound: []string{`{"type":"init"}`},
	}

	name, err := Handshake(transport)
	if err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}
	if name != "" {
		t.Fatalf("name = %q, want empty", name)
	}
}

func TestHandshakeLeavesLaterFramesForSuccessor(t *testing.T) {
	transport := &fakeTransport{
		inbound: []string{
			`{"type":"init","name":"ada"}`,
			`{"type":"user-action","id":"a1","action":{"type":"do","text":"opens the door"}}`,
		},
	}

	if _, err := Handshake(transport); err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}

	ch := newTestSessionChannel(transport)
	msg, err := ch.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if msg.ID != "a1" {
		t.Fatalf("message id = %q, want %q", msg.ID, "a1")
	}
}
