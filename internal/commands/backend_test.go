package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/config"
)

// chatServer is an in-memory chat backend served over httptest.
type chatServer struct {
	mu       sync.Mutex
	rooms    []client.Room
	messages map[string][]client.Message
	users    map[string][]client.UserSummary
	direct   map[string]client.Room
	reads    []string
	sends    []map[string]string
	queries  []string
	authz    []string
}

func newChatServer(t *testing.T) (*chatServer, *httptest.Server) {
	t.Helper()
	cs := &chatServer{
		rooms: []client.Room{
			{ID: "r1", Members: []client.Member{
				{User: client.UserSummary{ID: "u1", FirstName: "Sam", LastName: "Park"}},
				{User: client.UserSummary{ID: "u2", FirstName: "Ann", LastName: "Lee"}},
			}, LastMessage: &client.Message{ID: "m1", Content: "see you\nat ten", SenderID: "u2"}},
			{ID: "g1", IsGroup: true, Name: strPtr("Ops")},
			{ID: "g2", IsGroup: true},
		},
		messages: map[string][]client.Message{
			"r1": {
				{ID: "m0", Content: "morning", SenderID: "u1", Sender: client.UserSummary{ID: "u1", FirstName: "Sam", LastName: "Park"}},
				{ID: "m1", Content: "see you\nat ten", SenderID: "u2", Sender: client.UserSummary{ID: "u2", FirstName: "Ann", LastName: "Lee"}},
			},
		},
		users:  map[string][]client.UserSummary{},
		direct: map[string]client.Room{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /chat/rooms", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.authz = append(cs.authz, r.Header.Get("Authorization"))
		writeJSON(w, cs.rooms)
	})
	mux.HandleFunc("GET /chat/rooms/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		msgs, ok := cs.messages[r.PathValue("id")]
		if !ok && !cs.hasRoom(r.PathValue("id")) {
			http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
			return
		}
		if msgs == nil {
			msgs = []client.Message{}
		}
		writeJSON(w, msgs)
	})
	mux.HandleFunc("POST /chat/rooms/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.reads = append(cs.reads, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /chat/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.sends = append(cs.sends, body)
		msg := client.Message{
			ID:        fmt.Sprintf("sent-%d", len(cs.sends)),
			Content:   body["content"],
			SenderID:  "u1",
			Sender:    client.UserSummary{ID: "u1", FirstName: "Sam", LastName: "Park"},
			CreatedAt: "2026-01-02T15:04:05Z",
		}
		cs.messages[body["roomId"]] = append(cs.messages[body["roomId"]], msg)
		writeJSON(w, msg)
	})
	mux.HandleFunc("GET /chat/users/search", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		q := r.URL.Query().Get("q")
		cs.queries = append(cs.queries, q)
		users := cs.users[q]
		if users == nil {
			users = []client.UserSummary{}
		}
		writeJSON(w, users)
	})
	mux.HandleFunc("POST /chat/rooms/direct", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		cs.mu.Lock()
		defer cs.mu.Unlock()
		room, ok := cs.direct[body["userId"]]
		if !ok {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		if !cs.hasRoom(room.ID) {
			cs.rooms = append([]client.Room{room}, cs.rooms...)
		}
		writeJSON(w, room)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return cs, server
}

func (cs *chatServer) hasRoom(id string) bool {
	for _, r := range cs.rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func strPtr(s string) *string { return &s }

func testSession(t *testing.T, serverURL string) *session {
	t.Helper()
	cfg := &config.Config{ServerURL: serverURL, UserID: "u1", Token: "tok-123"}
	cfg.ApplyDefaults()
	s, err := newSession(cfg, io.Discard)
	if err != nil {
		t.Fatalf("newSession() error: %v", err)
	}
	return s
}
