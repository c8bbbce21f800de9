package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/braillechain/go/internal/game"
	"github.com/mcdev12/braillechain/go/internal/navigation"
	"github.com/mcdev12/braillechain/go/internal/speech"
)

type fakeSession struct {
	mu        sync.Mutex
	moves     []navigation.Direction
	activates int
	escapes   int
}

func (f *fakeSession) View() game.View {
	return game.View{SessionID: "s-1", Locale: "en-US", Score: "Incorrect Attempts: 0 | Total Exchanges: 0"}
}

func (f *fakeSession) Navigate(dir navigation.Direction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, dir)
}

func (f *fakeSession) Activate(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activates++
}

func (f *fakeSession) Escape(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.escapes++
}

func (f *fakeSession) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.moves), f.activates, f.escapes
}

func startGateway(t *testing.T, session Session) (*Service, *httptest.Server) {
	t.Helper()
	svc := NewService(DefaultConfig())
	if session != nil {
		svc.Bind(session)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Start(ctx)
	}()

	srv := httptest.NewServer(NewHandler(svc))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/display"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestDisplayReceivesViewOnConnect(t *testing.T) {
	_, srv := startGateway(t, &fakeSession{})
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeView, msg.Type)

	var view game.View
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	assert.Equal(t, "s-1", view.SessionID)
}

func TestSpeechAndNavigationAreBroadcast(t *testing.T) {
	svc, srv := startGateway(t, &fakeSession{})
	conn := dial(t, srv)
	readMessage(t, conn)

	var engine speech.Engine = svc
	require.NoError(t, engine.Cancel())
	require.NoError(t, engine.Speak(context.Background(), speech.Utterance{Text: "t", LanguageTag: "en-US"}))
	require.NoError(t, svc.GoTo(context.Background(), "/word_chain_menu"))

	assert.Equal(t, MessageTypeCancel, readMessage(t, conn).Type)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSpeak, msg.Type)
	var u speech.Utterance
	require.NoError(t, json.Unmarshal(msg.Data, &u))
	assert.Equal(t, speech.Utterance{Text: "t", LanguageTag: "en-US"}, u)

	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeNavigate, msg.Type)
	var nav NavigatePayload
	require.NoError(t, json.Unmarshal(msg.Data, &nav))
	assert.Equal(t, "/word_chain_menu", nav.Route)
}

func TestClientCommandsReachSession(t *testing.T) {
	session := &fakeSession{}
	_, srv := startGateway(t, session)
	conn := dial(t, srv)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientMessageNavigate, Direction: "right"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientMessageNavigate, Direction: "up"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientMessageActivate}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientMessageEscape}))

	require.Eventually(t, func() bool {
		moves, activates, escapes := session.counts()
		return moves == 1 && activates == 1 && escapes == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStateEndpoint(t *testing.T) {
	_, srv := startGateway(t, &fakeSession{})

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var view game.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "en-US", view.Locale)
}

func TestStateEndpointWithoutSession(t *testing.T) {
	_, srv := startGateway(t, nil)

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndCORS(t *testing.T) {
	_, srv := startGateway(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://display.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestConnectionStats(t *testing.T) {
	_, srv := startGateway(t, &fakeSession{})
	conn := dial(t, srv)
	readMessage(t, conn)

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalConnections)
}

func TestExtraRoutesAreServed(t *testing.T) {
	svc := NewService(DefaultConfig())
	svc.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("braillechain_healthy 1\n"))
	}))
	srv := httptest.NewServer(NewHandler(svc))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "braillechain_healthy 1\n", string(body))
}
