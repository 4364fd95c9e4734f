package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/nissyi-gh/taskdeck/internal/model"
)

// stubServer records requests and serves canned responses.
type stubServer struct {
	mu       sync.Mutex
	requests []string
	seq      int64
	kinds    []string
	srv      *httptest.Server
}

func newStubServer() *stubServer {
	s := &stubServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/changes", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"seq": s.seq, "kinds": s.kinds})
	})
	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{{"id": "t1", "name": "one"}})
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"t2"}`))
		}
	})
	mux.HandleFunc("/api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		switch r.Method {
		case http.MethodPatch:
			w.Write([]byte(`{"id":"t1"}`))
		case http.MethodDelete:
			w.Write([]byte(`{"deleted":"t1"}`))
		}
	})
	mux.HandleFunc("/api/positions", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.Write([]byte(`{"updated":2}`))
	})
	s.srv = httptest.NewServer(mux)
	return s
}

func (s *stubServer) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
}

func (s *stubServer) requestLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func TestClient_CollectionCRUD(t *testing.T) {
	is := is.New(t)
	stub := newStubServer()
	defer stub.srv.Close()
	ctx := context.Background()

	c := NewClient(stub.srv.URL, "u1")
	coll := c.Collection(model.KindTask)

	rows, err := coll.Select(ctx, Filter{"archived": "false"})
	is.NoErr(err)
	is.Equal(len(rows), 1)

	_, err = coll.Insert(ctx, map[string]string{"id": "t2"})
	is.NoErr(err)
	_, err = coll.Update(ctx, "t1", map[string]string{"id": "t1"})
	is.NoErr(err)
	is.NoErr(coll.Delete(ctx, "t1"))

	log := stub.requestLog()
	is.Equal(len(log), 4)
	is.Equal(log[1], "POST /api/tasks?owner=u1")
	is.Equal(log[2], "PATCH /api/tasks/t1?")
	is.Equal(log[3], "DELETE /api/tasks/t1?")
}

func TestClient_SelectSendsOwnerAndFilter(t *testing.T) {
	is := is.New(t)
	stub := newStubServer()
	defer stub.srv.Close()

	c := NewClient(stub.srv.URL, "u1")
	_, err := c.Collection(model.KindTask).Select(context.Background(), Filter{"archived": "false"})
	is.NoErr(err)
	is.Equal(stub.requestLog()[0], "GET /api/tasks?archived=false&owner=u1")
}

func TestClient_SetPositions(t *testing.T) {
	is := is.New(t)
	stub := newStubServer()
	defer stub.srv.Close()

	c := NewClient(stub.srv.URL, "u1")
	err := c.SetPositions(context.Background(), model.KindTask, []PositionUpdate{
		{ID: "t1", Position: 1},
		{ID: "t2", Position: 0},
	})
	is.NoErr(err)
	is.Equal(stub.requestLog()[0], "POST /api/positions?")
}

func TestClient_ErrorEnvelope(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"owner parameter required"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "u1")
	_, err := c.Collection(model.KindTask).Select(context.Background(), nil)
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "owner parameter required"))
}

func TestClient_PollTracksReachabilityAndNotifies(t *testing.T) {
	is := is.New(t)
	stub := newStubServer()
	stub.seq = 1
	stub.kinds = []string{"task"}

	c := NewClient(stub.srv.URL, "u1")
	is.Equal(c.Online(), false) // unknown until the first poll

	notified := make(chan struct{}, 1)
	cancel := c.Subscribe(model.KindTask, "u1", func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	defer cancel()

	var transitions []bool
	var mu sync.Mutex
	c.OnReachabilityChange(func(online bool) {
		mu.Lock()
		transitions = append(transitions, online)
		mu.Unlock()
	})

	c.Start(50 * time.Millisecond)
	defer c.Stop()

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("change notification never fired")
	}
	is.Equal(c.Online(), true)

	// killing the server flips the client offline on the next poll
	stub.srv.Close()
	deadline := time.Now().Add(2 * time.Second)
	for c.Online() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	is.Equal(c.Online(), false)

	mu.Lock()
	defer mu.Unlock()
	is.Equal(transitions[0], true)
	is.Equal(transitions[len(transitions)-1], false)
}
