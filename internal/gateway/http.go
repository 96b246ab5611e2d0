package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rahul/sahaay/internal/assist"
	"github.com/rahul/sahaay/internal/conversation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from wherever the operator runs it; the API carries
	// no credentials beyond network reachability.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HTTPServer is the JSON API the operator UI talks to. The UI polls
// GET /api/state on an interval and renders transcript + task status;
// POST /api/trigger is the single "analyze now" signal.
type HTTPServer struct {
	States    *conversation.Manager
	Trigger   Triggerer
	Saver     Saver
	ListSaved func() ([]string, error) // nil disables /api/transcripts

	srv *http.Server
}

func NewHTTPServer(addr string, states *conversation.Manager, trigger Triggerer, saver Saver, listSaved func() ([]string, error)) *HTTPServer {
	h := &HTTPServer{
		States:    states,
		Trigger:   trigger,
		Saver:     saver,
		ListSaved: listSaved,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", h.handleState)
	mux.HandleFunc("POST /api/trigger", h.handleTrigger)
	mux.HandleFunc("POST /api/save", h.handleSave)
	mux.HandleFunc("POST /api/clear", h.handleClear)
	mux.HandleFunc("GET /api/transcripts", h.handleTranscripts)
	mux.HandleFunc("GET /api/live", h.handleLive)

	h.srv = &http.Server{Addr: addr, Handler: mux}
	return h
}

// Start blocks serving the API until Stop is called.
func (h *HTTPServer) Start() error {
	err := h.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (h *HTTPServer) Stop() error {
	return h.srv.Close()
}

// Handler exposes the routes for tests.
func (h *HTTPServer) Handler() http.Handler {
	return h.srv.Handler
}

func (h *HTTPServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.States.Snapshot())
}

// triggerResponse is returned for every trigger, success or failure: a
// human-readable status plus the result string. There is no silent no-op
// besides the empty-transcript case.
type triggerResponse struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

func (h *HTTPServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.Trigger.Trigger(r.Context())

	switch {
	case err != nil:
		writeJSON(w, http.StatusOK, triggerResponse{Status: "failed", Result: "Error: " + err.Error()})
	case result == assist.NoConversationResult:
		writeJSON(w, http.StatusOK, triggerResponse{Status: "empty", Result: result})
	default:
		writeJSON(w, http.StatusOK, triggerResponse{Status: "completed", Result: result})
	}
}

func (h *HTTPServer) handleSave(w http.ResponseWriter, r *http.Request) {
	ref, err := h.Saver.SaveNow(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

func (h *HTTPServer) handleClear(w http.ResponseWriter, r *http.Request) {
	h.States.Clear()
	writeJSON(w, http.StatusOK, h.States.Snapshot())
}

func (h *HTTPServer) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	if h.ListSaved == nil {
		http.Error(w, "transcript listing not configured", http.StatusNotFound)
		return
	}
	names, err := h.ListSaved()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transcripts": names})
}

// handleLive pushes a state snapshot over the websocket on every mutation,
// starting with the current one. When the connection dies, its listener is
// unsubscribed and both goroutines exit.
func (h *HTTPServer) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	// sendMu guards closed and the channel, so the listener can never send
	// on updates after shutdown closes it.
	var (
		sendMu   sync.Mutex
		closed   bool
		shutOnce sync.Once
	)
	updates := make(chan *conversation.State, 8)
	updates <- h.States.Snapshot()

	// The listener runs on the mutating caller's goroutine, so it never
	// blocks on the network: a full buffer drops the update, and the
	// client catches up on the next one. Intermediate states may be
	// missed but are never delivered out of order.
	unsubscribe := h.States.Subscribe(func(state *conversation.State) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if closed {
			return
		}
		select {
		case updates <- state:
		default:
		}
	})

	// shutdown runs once, whichever side notices the dead connection
	// first. Closing updates lets the writer drain out and exit.
	shutdown := func() {
		shutOnce.Do(func() {
			unsubscribe()
			sendMu.Lock()
			closed = true
			close(updates)
			sendMu.Unlock()
			conn.Close()
		})
	}

	go func() {
		for state := range updates {
			if err := conn.WriteJSON(state); err != nil {
				break
			}
		}
		shutdown()
	}()

	// Drain (and discard) client messages so pings are answered and we
	// notice the close frame.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				shutdown()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
