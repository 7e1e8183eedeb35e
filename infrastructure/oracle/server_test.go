package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/duelist/infrastructure/planner"
)

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerConfig{EnableCORS: true}, NewHandler(HandlerConfig{}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, _ := json.Marshal(closeSnapshot())
	for _, route := range []string{RouteAct, RouteActPrefixed} {
		resp, err := http.Post(ts.URL+route, "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s error = %v", route, err)
		}
		var out planner.Response
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK || out.Source != SourceHeuristic {
			t.Errorf("POST %s = %d %+v", route, resp.StatusCode, out)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("POST %s missing CORS header", route)
		}
	}

	resp, err := http.Get(ts.URL + RouteHealth)
	if err != nil {
		t.Fatalf("GET health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+RouteAct, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", resp.StatusCode)
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ServerConfig{}, NewHandler(HandlerConfig{}))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, l) }()

	client := planner.DefaultClientConfig("http://" + l.Addr().String() + RouteAct)
	client.Timeout = time.Second
	c, err := planner.NewClient(client)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	p, err := c.Plan(context.Background(), closeSnapshot())
	if err != nil {
		t.Fatalf("client Plan() through relay error = %v", err)
	}
	if p.IsEmpty() {
		t.Error("relay returned an empty plan")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not stop after cancel")
	}
}
