package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/storyloom/storyloom/internal/platform/id"
	"github.com/storyloom/storyloom/internal/platform/timeouts"
	"github.com/storyloom/storyloom/internal/services/story/generator"
	"github.com/storyloom/storyloom/internal/services/story/protocol"
	"github.com/storyloom/storyloom/internal/services/story/storage"
	"github.com/storyloom/storyloom/internal/services/story/storage/sqlite"
	"golang.org/x/net/websocket"
)

// Config defines the inputs for the story transport boundary.
//
// The settings couple the WebSocket layer to a completion backend and an
// optional durable event journal without owning either.
type Config struct {
	HTTPAddr             string
	DBPath               string
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAICompletionsURL string
	GenerateTimeout      time.Duration
	ReadHeaderTimeout    time.Duration
	ShutdownTimeout      time.Duration
}

// Server hosts the story HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	journal         storage.EventJournal
}

// NewHandler creates story routes against an injected generator and journal.
// A nil journal keeps rooms memory-only, which is what tests want.
func NewHandler(gen generator.Generator, journal storage.EventJournal, generateTimeout time.Duration) http.Handler {
	reg := newRegistry(gen, journal, generateTimeout)
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /ws/room/{roomID}", func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.TrimSpace(r.PathValue("roomID"))
		if roomID == "" {
			http.Error(w, "room id is required", http.StatusBadRequest)
			return
		}

		websocket.Handler(func(conn *websocket.Conn) {
			handleWSConn(conn, reg, roomID)
		}).ServeHTTP(w, r)
	})

	return mux
}

func handleWSConn(conn *websocket.Conn, reg *registry, roomID string) {
	defer func() {
		_ = conn.Close()
	}()

	transport := newWSTransport(conn)
	name, err := Handshake(transport)
	if err != nil {
		log.Printf("story: handshake failed room=%q: %v", roomID, err)
		return
	}

	// The connection id keeps log lines apart when two members share a name.
	connID, err := id.NewID()
	if err != nil {
		log.Printf("story: generate connection id: %v", err)
		connID = "conn"
	}
	ch := NewChannel(
		transport,
		fmt.Sprintf("%s/%s/%s", roomID, name, connID),
		protocol.DecodeClientMessage,
		protocol.EncodeServerMessage,
	)
	defer ch.Close()

	room := reg.room(roomID)

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}
	if err := room.ensureSeeded(ctx); err != nil {
		log.Printf("story: seed failed room=%q: %v", roomID, err)
		return
	}

	m := &member{name: name, ch: ch}
	room.join(m)
	defer room.leave(m)

	for {
		msg, err := ch.Receive()
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				log.Printf("story: dropping malformed message room=%q user=%q: %v", roomID, name, err)
				continue
			}
			return
		}

		switch msg.Type {
		case protocol.TypeUserAction:
			if msg.Action == nil {
				log.Printf("story: user-action without action room=%q user=%q", roomID, name)
				continue
			}
			room.action(m, msg.ID, *msg.Action)
		default:
			log.Printf("story: ignoring message type %q room=%q user=%q", msg.Type, roomID, name)
		}
	}
}

// NewServer builds a configured story server, opening the event journal and
// the completion backend from config.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	if config.GenerateTimeout <= 0 {
		config.GenerateTimeout = timeouts.Generate
	}

	gen := generator.NewOpenAI(generator.OpenAIConfig{
		CompletionsURL: config.OpenAICompletionsURL,
		APIKey:         config.OpenAIAPIKey,
		Model:          config.OpenAIModel,
	})

	var journal storage.EventJournal
	if strings.TrimSpace(config.DBPath) != "" {
		store, err := sqlite.Open(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open event journal: %w", err)
		}
		journal = store
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(gen, journal, config.GenerateTimeout),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		journal:         journal,
	}, nil
}

// Run creates and serves a story server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init story server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve story: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("story server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("story server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Printf("close event journal: %v", err)
		}
	}
}
