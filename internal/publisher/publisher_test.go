package publisher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlrig/hwmon/internal/domain"
	"github.com/mlrig/hwmon/internal/hub"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendPostsSnapshot(t *testing.T) {
	t.Parallel()

	received := make(chan payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-Key"); got != "secret-key" {
			t.Errorf("api key header = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		var p payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode body: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(srv.URL, "secret-key", "agent-1", testLogger())
	snap := domain.Snapshot{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		CPU:       &domain.CPUStats{Overall: 33},
	}

	if err := p.send(context.Background(), snap); err != nil {
		t.Fatalf("send: %v", err)
	}

	got := <-received
	if got.AgentID != "agent-1" {
		t.Errorf("agent id = %q", got.AgentID)
	}
	if got.Snapshot.CPU == nil || got.Snapshot.CPU.Overall != 33 {
		t.Errorf("snapshot cpu = %+v", got.Snapshot.CPU)
	}
}

func TestSendReportsServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := New(srv.URL, "", "agent-1", testLogger())
	if err := p.send(context.Background(), domain.Snapshot{}); err == nil {
		t.Error("send did not surface the 400 response")
	}
}

func TestRunForwardsHubSnapshots(t *testing.T) {
	t.Parallel()

	var count atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := hub.New(4, 8, testLogger())
	p := New(srv.URL, "", "agent-1", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx, h.Subscribe())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for h.Consumers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("publisher never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Publish(domain.Snapshot{Timestamp: time.Unix(1, 0)})
	h.Publish(domain.Snapshot{Timestamp: time.Unix(2, 0)})

	for count.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("delivered %d snapshots, want 2", count.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A closed subscription ends the loop.
	h.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after hub close")
	}
}
