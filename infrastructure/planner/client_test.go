package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
)

const okPlanXML = `<actions t="5"><npc id="boss"><microStep dx="0.5" durMs="100"/><strike kind="heavy" whenMs="200"/><why>press</why></npc></actions>`

func testSnapshot() snapshot.Snapshot {
	player := snapshot.Capture(combat.NewActorState(combat.ActorPlayer, combat.FacingRight), snapshot.Position{X: 300})
	npc := snapshot.Capture(combat.NewActorState(combat.ActorNPC, combat.FacingLeft), snapshot.Position{X: 420})
	return snapshot.New(time.UnixMilli(1000), player, npc, nil, nil)
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()

	cfg := DefaultClientConfig(url)
	cfg.Timeout = timeout
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{}); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("NewClient() error = %v, want ErrNoEndpoint", err)
	}

	client, err := NewClient(ClientConfig{URL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.Timeout() != 300*time.Millisecond {
		t.Errorf("Timeout() = %v, want 300ms", client.Timeout())
	}
}

func TestClient_Plan_Success(t *testing.T) {
	t.Parallel()

	var got snapshot.Snapshot
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode snapshot: %v", err)
		}
		writeResponse(w, Response{Status: StatusOK, Source: "test", XML: okPlanXML})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	p, err := client.Plan(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if got.T != 1000 || got.Player.X != 300 || got.NPC.X != 420 {
		t.Errorf("oracle received %+v", got)
	}
	if p.Source != plan.SourceOracle {
		t.Errorf("Source = %s, want oracle", p.Source)
	}
	if p.Rationale != "press" || len(p.Directives) != 2 {
		t.Errorf("Plan() = %+v", p)
	}
	d, ok := p.Find(plan.KindStrike)
	if !ok || d.(plan.Strike).Attack != combat.AttackHeavy {
		t.Errorf("strike = %+v, want heavy", d)
	}
}

func TestClient_Plan_ExtractsFromProse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, Response{XML: "Here you go:\n" + okPlanXML + "\nGood luck."})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	if _, err := client.Plan(context.Background(), testSnapshot()); err != nil {
		t.Errorf("Plan() error = %v", err)
	}
}

func TestClient_Plan_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: ErrBadStatus,
		},
		{
			name: "status not ok",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeResponse(w, Response{Status: "error", Error: "quota"})
			},
			wantErr: ErrBadStatus,
		},
		{
			name: "empty xml",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeResponse(w, Response{Status: StatusOK})
			},
			wantErr: ErrEmptyResponse,
		},
		{
			name: "unknown tag",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeResponse(w, Response{XML: `<actions><npc id="boss"><teleport/></npc></actions>`})
			},
			wantErr: plan.ErrUnknownTag,
		},
		{
			name: "empty plan",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeResponse(w, Response{XML: `<actions><npc id="boss"><why>idle</why></npc></actions>`})
			},
			wantErr: plan.ErrEmptyPlan,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantErr: ErrOracleFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := newTestClient(t, server.URL, time.Second)
			p, err := client.Plan(context.Background(), testSnapshot())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Plan() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrOracleFailed) {
				t.Errorf("Plan() error = %v, want wrapped ErrOracleFailed", err)
			}
			if !p.IsEmpty() {
				t.Errorf("Plan() = %+v on failure, want empty", p)
			}
		})
	}
}

func TestClient_Plan_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(400 * time.Millisecond):
			writeResponse(w, Response{XML: okPlanXML})
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 100*time.Millisecond)
	start := time.Now()
	_, err := client.Plan(context.Background(), testSnapshot())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Plan() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed >= 350*time.Millisecond {
		t.Errorf("Plan() took %v, want abort near 100ms", elapsed)
	}
}

func TestClient_Plan_CircuitOpens(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultClientConfig(server.URL)
	cfg.Timeout = time.Second
	cfg.BreakerThreshold = 2
	cfg.BreakerTimeout = time.Minute
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		_, _ = client.Plan(context.Background(), testSnapshot())
	}
	if !client.CircuitOpen() {
		t.Fatal("CircuitOpen() = false after threshold failures")
	}

	_, err = client.Plan(context.Background(), testSnapshot())
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Plan() error = %v, want ErrCircuitOpen", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}
