package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/storyloom/storyloom/internal/services/story/generator"
	"github.com/storyloom/storyloom/internal/services/story/protocol"
	"github.com/storyloom/storyloom/internal/services/story/storage"
)

const (
	seedPrompt            = "Introduce our fantasy adventure story in around 20 words:\n"
	continuationQuestion  = "\nWhat happened next can be described in around 20 words:"
	seedMaxTokens         = 100
	continuationMaxTokens = 50

	// promptEventWindow bounds how much history feeds one continuation.
	promptEventWindow = 10
)

// sessionChannel is the full-protocol channel each member holds.
type sessionChannel = Channel[protocol.ClientMessage, protocol.ServerMessage]

// member is one live participant: a display name bound to a channel. No
// identity persists across reconnects.
type member struct {
	name string
	ch   *sessionChannel
}

// registry owns every room, keyed by id. Get-or-create holds the registry
// lock so two simultaneous first-joiners of an unseen room share a single
// room instead of racing to create two.
type registry struct {
	mu    sync.Mutex
	rooms map[string]*room

	generator       generator.Generator
	journal         storage.EventJournal
	generateTimeout time.Duration
}

func newRegistry(gen generator.Generator, journal storage.EventJournal, generateTimeout time.Duration) *registry {
	if generateTimeout <= 0 {
		generateTimeout = time.Minute
	}
	return &registry{
		rooms:           make(map[string]*room),
		generator:       gen,
		journal:         journal,
		generateTimeout: generateTimeout,
	}
}

// room returns the room for id, creating it if absent. Rooms live for the
// process lifetime; there is no eviction.
func (g *registry) room(id string) *room {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[id]
	if ok {
		return r
	}

	r = &room{
		id:              id,
		members:         make(map[*member]struct{}),
		generator:       g.generator,
		journal:         g.journal,
		generateTimeout: g.generateTimeout,
	}
	g.rooms[id] = r
	return r
}

// room holds one shared narrative session: an append-only event log, the
// membership set, and the Busy/Idle admission-control flag. All three are
// guarded by mu; event-bearing broadcasts happen under the same lock so
// every member observes server messages in log order.
type room struct {
	id string

	generator       generator.Generator
	journal         storage.EventJournal
	generateTimeout time.Duration

	seedMu sync.Mutex
	seeded bool

	mu      sync.Mutex
	events  []protocol.Event
	members map[*member]struct{}
	busy    bool
}

// ensureSeeded makes the room ready for its first join: replay the journal
// if the room has durable history, otherwise request one seed narrative
// event from the continuation generator. At most one seed request runs;
// concurrent first-joiners block here until the log is non-empty. On failure
// the room stays unseeded and the next join retries.
func (r *room) ensureSeeded(ctx context.Context) error {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()

	if r.seeded {
		return nil
	}

	if r.journal != nil {
		stored, err := r.journal.ListEvents(ctx, r.id)
		if err != nil {
			return fmt.Errorf("load journaled events: %w", err)
		}
		if len(stored) > 0 {
			r.mu.Lock()
			r.events = make([]protocol.Event, 0, len(stored))
			for _, evt := range stored {
				r.events = append(r.events, evt.Event)
			}
			r.mu.Unlock()
			r.seeded = true
			return nil
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, r.generateTimeout)
	defer cancel()
	text, err := r.generator.Complete(genCtx, seedPrompt, seedMaxTokens)
	if err != nil {
		return fmt.Errorf("seed narrative: %w", err)
	}

	r.mu.Lock()
	r.appendLocked(protocol.Event{Type: protocol.EventStory, Text: text})
	r.mu.Unlock()
	r.seeded = true
	return nil
}

// join replays the full event log to the newcomer, then adds them to the
// membership set and broadcasts a joined event to everyone including the
// newcomer. The replay happens before the membership add, so the newcomer
// never sees an event twice.
func (r *room) join(m *member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, evt := range r.events {
		_ = m.ch.Send(protocol.ServerMessage{Type: protocol.TypeEvent, Event: &evt})
	}
	r.members[m] = struct{}{}
	r.appendLocked(protocol.Event{Type: protocol.EventJoined, User: m.name})
}

// leave removes the member and broadcasts a left event to the remaining
// members. Triggered by the member's transport closing; safe to call twice.
func (r *room) leave(m *member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[m]; !ok {
		return
	}
	delete(r.members, m)
	r.appendLocked(protocol.Event{Type: protocol.EventLeft, User: m.name})
}

// action drives the admission-control state machine for one submission. A
// Busy room rejects without mutation; the client must resubmit under a fresh
// correlation id. An Idle room logs and broadcasts the contribution,
// acknowledges it, turns Busy, warns the whole room, and requests the
// continuation in the background.
func (r *room) action(m *member, actionID string, action protocol.Action) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		_ = m.ch.Send(protocol.ServerMessage{
			Type:   protocol.TypeUserActionResult,
			ID:     actionID,
			Result: protocol.ResultRejected,
		})
		return
	}

	r.appendLocked(protocol.Event{Type: protocol.EventUserAction, User: m.name, Action: &action})
	_ = m.ch.Send(protocol.ServerMessage{
		Type:   protocol.TypeUserActionResult,
		ID:     actionID,
		Result: protocol.ResultAccepted,
	})
	r.busy = true
	r.broadcastLocked(protocol.ServerMessage{Type: protocol.TypeWorking})
	prompt := continuationPrompt(r.events)
	r.mu.Unlock()

	go r.continueStory(prompt)
}

// continueStory asks the collaborator to extend the narrative and returns
// the room to Idle on every outcome. The call is bounded by the generate
// timeout so a hung collaborator cannot leave the room Busy forever; a
// failed continuation appends nothing.
func (r *room) continueStory(prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.generateTimeout)
	defer cancel()
	text, err := r.generator.Complete(ctx, prompt, continuationMaxTokens)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
	if err != nil {
		log.Printf("story: continuation failed room=%q: %v", r.id, err)
		return
	}
	r.appendLocked(protocol.Event{Type: protocol.EventStory, Text: text})
}

// appendLocked appends one event to the log, journals it, and broadcasts it.
// Callers hold r.mu. Journal failures are logged; memory stays the source of
// truth for a live room.
func (r *room) appendLocked(evt protocol.Event) {
	r.events = append(r.events, evt)
	if r.journal != nil {
		seq := int64(len(r.events))
		if err := r.journal.AppendEvent(context.Background(), r.id, seq, evt); err != nil {
			log.Printf("story: journal append failed room=%q seq=%d: %v", r.id, seq, err)
		}
	}
	published := evt
	r.broadcastLocked(protocol.ServerMessage{Type: protocol.TypeEvent, Event: &published})
}

// broadcastLocked fans one message out to every member. One member's send
// failure never blocks delivery to the others. Callers hold r.mu.
func (r *room) broadcastLocked(msg protocol.ServerMessage) {
	for m := range r.members {
		if err := m.ch.Send(msg); err != nil {
			log.Printf("story: broadcast to %q failed room=%q: %v", m.name, r.id, err)
		}
	}
}

// continuationPrompt renders the most recent log events one line each and
// asks for the next beat of the story.
func continuationPrompt(events []protocol.Event) string {
	start := len(events) - promptEventWindow
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, evt := range events[start:] {
		b.WriteString("* ")
		b.WriteString(renderEventLine(evt))
		b.WriteString("\n")
	}
	b.WriteString(continuationQuestion)
	return b.String()
}

func renderEventLine(evt protocol.Event) string {
	switch evt.Type {
	case protocol.EventStory:
		return evt.Text
	case protocol.EventJoined:
		return evt.User + " joined the story"
	case protocol.EventLeft:
		return evt.User + " left the story"
	case protocol.EventUserAction:
		if evt.Action == nil {
			return evt.User + " did nothing"
		}
		switch evt.Action.Type {
		case protocol.ActionSay:
			return fmt.Sprintf("%s said %q", evt.User, evt.Action.Text)
		case protocol.ActionDo:
			return fmt.Sprintf("%s %s", evt.User, evt.Action.Text)
		}
	}
	return evt.Text
}
