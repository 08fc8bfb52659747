package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tickstream/tickstream/internal/catalog"
	"github.com/tickstream/tickstream/internal/quote"
	"github.com/tickstream/tickstream/internal/session"
	"github.com/tickstream/tickstream/internal/watchlist"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	srv := New(
		Config{DefaultInterval: 5 * time.Second},
		watchlist.NewStore(),
		catalog.Default(),
		quote.NewGenerator(quote.WithSeed(1)),
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	})

	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event, data string) {
	t.Helper()

	frame := `{"event":"` + event + `"`
	if data != "" {
		frame += `,"data":` + data
	}
	frame += `}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("bad envelope %q: %v", raw, err)
	}
	return env
}

func TestServer_StartFlow(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)

	send(t, conn, session.EventStart, "")

	env := readEnvelope(t, conn)
	if env.Event != session.EventTicker {
		t.Fatalf("first event = %q, want %q", env.Event, session.EventTicker)
	}
	var quotes []quote.Quote
	if err := json.Unmarshal(env.Data, &quotes); err != nil {
		t.Fatalf("bad ticker payload: %v", err)
	}
	if len(quotes) != 6 {
		t.Errorf("len(quotes) = %d, want 6", len(quotes))
	}

	env = readEnvelope(t, conn)
	if env.Event != session.EventInit {
		t.Fatalf("second event = %q, want %q", env.Event, session.EventInit)
	}
	var init struct {
		Interval   int64                 `json:"interval"`
		WatchLists []watchlist.WatchList `json:"watchLists"`
	}
	if err := json.Unmarshal(env.Data, &init); err != nil {
		t.Fatalf("bad init payload: %v", err)
	}
	if init.Interval != 5000 {
		t.Errorf("interval = %d, want 5000", init.Interval)
	}
	if len(init.WatchLists) != 0 {
		t.Errorf("len(watchLists) = %d, want 0", len(init.WatchLists))
	}
}

func TestServer_CreateAndStream(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)

	send(t, conn, session.EventStart, "")
	readEnvelope(t, conn) // ticker
	readEnvelope(t, conn) // init

	send(t, conn, session.EventCreateWatchList, `{"id":1,"name":"tech","selectedTickers":[1,3],"interval":50}`)

	env := readEnvelope(t, conn)
	if env.Event != session.EventInit {
		t.Fatalf("event = %q, want init", env.Event)
	}

	// Immediate snapshot plus at least one periodic tick, both limited to
	// the selected pair.
	for i := 0; i < 2; i++ {
		env = readEnvelope(t, conn)
		if env.Event != session.EventTicker {
			t.Fatalf("event = %q, want ticker", env.Event)
		}
		var quotes []quote.Quote
		if err := json.Unmarshal(env.Data, &quotes); err != nil {
			t.Fatalf("bad ticker payload: %v", err)
		}
		if len(quotes) != 2 {
			t.Fatalf("tick %d: len(quotes) = %d, want 2", i, len(quotes))
		}
	}
}

func TestServer_MalformedFrame(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Event != session.EventError {
		t.Fatalf("event = %q, want error", env.Event)
	}

	// The connection stays usable afterwards.
	send(t, conn, session.EventStart, "")
	if env := readEnvelope(t, conn); env.Event != session.EventTicker {
		t.Errorf("event after recovery = %q, want ticker", env.Event)
	}
}

func TestServer_DisconnectStopsSession(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dialWS(t, ts)

	send(t, conn, session.EventStart, "")
	readEnvelope(t, conn)
	readEnvelope(t, conn)

	conn.Close()

	deadline := time.After(2 * time.Second)
	for srv.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatalf("ClientCount() = %d after disconnect, want 0", srv.ClientCount())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServer_TwoSessionsIndependentSelections(t *testing.T) {
	_, ts := newTestServer(t)

	a := dialWS(t, ts)
	b := dialWS(t, ts)

	send(t, a, session.EventCreateWatchList, `{"id":1,"name":"tech","selectedTickers":[1,3],"interval":5000}`)
	readEnvelope(t, a) // init
	readEnvelope(t, a) // ticker (2)

	// Session B selects the shared list, then deletes it: B falls back to
	// all instruments while A keeps its own copy.
	send(t, b, session.EventSelectWatchList, `{"id":1,"interval":5000}`)
	env := readEnvelope(t, b)
	var quotes []quote.Quote
	json.Unmarshal(env.Data, &quotes)
	if len(quotes) != 2 {
		t.Fatalf("B after select: len(quotes) = %d, want 2", len(quotes))
	}

	send(t, b, session.EventDeleteWatchList, `{"id":1,"interval":5000}`)
	readEnvelope(t, b) // init (empty)
	env = readEnvelope(t, b)
	json.Unmarshal(env.Data, &quotes)
	if len(quotes) != 6 {
		t.Errorf("B after delete: len(quotes) = %d, want 6", len(quotes))
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("bad health payload: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q, want %q", health.Status, "healthy")
	}
}

func TestServer_Landing(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}
