package server

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/storyloom/storyloom/internal/services/story/protocol"
)

// noReply is the outbound type of the handshake channel. The handshake phase
// is receive-only; encoding a noReply is unreachable by construction.
type noReply struct{}

// Handshake borrows a freshly accepted transport and waits for the single
// init message that carries the participant's display name. On success the
// temporary channel is detached and the open transport is released back to
// the caller, which alone constructs the full-protocol channel. If the
// transport closes or errors first, the handshake fails with no side
// effects.
func Handshake(transport Transport) (string, error) {
	ch := NewChannel(transport, "handshake", protocol.DecodeInitMessage, func(noReply) (string, error) {
		panic("handshake channel cannot send")
	})
	defer ch.Detach()

	for {
		msg, err := ch.Receive()
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				log.Printf("story: handshake dropped malformed frame: %v", err)
				continue
			}
			return "", fmt.Errorf("await init message: %w", err)
		}
		return strings.TrimSpace(msg.Name), nil
	}
}
