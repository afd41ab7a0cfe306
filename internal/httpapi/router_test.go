package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/chesscoach/internal/coach"
	"github.com/freeeve/chesscoach/internal/engine"
)

const startFEN = engine.StartFEN

// stubEngine answers every position with e2e4, or fails like an exhausted
// provider chain.
type stubEngine struct {
	mu   sync.Mutex
	fail bool
	reqs []engine.Request
}

func (s *stubEngine) BestMove(_ context.Context, req engine.Request) (*engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.fail {
		return nil, &engine.AllProvidersFailedError{}
	}
	score := engine.Centipawns(30)
	return &engine.Result{
		BestMove: "e2e4",
		Score:    score,
		Depth:    req.Depth,
		Lines:    []engine.Line{{Rank: 1, Move: "e2e4", Score: score}},
		Provider: "stub",
	}, nil
}

func (s *stubEngine) last() engine.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func newTestServer(t *testing.T, fail bool) (*httptest.Server, *stubEngine) {
	t.Helper()
	se := &stubEngine{fail: fail}
	svc := coach.NewService(zerolog.Nop(), se, nil)
	srv := httptest.NewServer(NewRouter(zerolog.Nop(), svc, []string{"chessapi", "stockfishonline", "multipv"}))
	t.Cleanup(srv.Close)
	return srv, se
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, resp.Header.Get("X-Request-ID"), 8)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestBestMoveGET(t *testing.T) {
	srv, se := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/v1/bestmove?fen=" + strings.ReplaceAll(startFEN, " ", "%20"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var a coach.Analysis
	decode(t, resp, &a)
	assert.Equal(t, "e2e4", a.BestMove)
	assert.Equal(t, "e4", a.BestMoveSAN)
	assert.Equal(t, 30, a.Score.Value)
	assert.Equal(t, 15, se.last().Depth)
	assert.Equal(t, 1, se.last().Lines)
}

func TestBestMovePOST(t *testing.T) {
	srv, se := newTestServer(t, false)

	body, _ := json.Marshal(BestMoveRequest{FEN: startFEN, Depth: 22, Lines: 3})
	resp, err := http.Post(srv.URL+"/v1/bestmove", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 22, se.last().Depth)
	assert.Equal(t, 3, se.last().Lines)
}

func TestBestMoveBadInput(t *testing.T) {
	srv, se := newTestServer(t, false)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"missing fen", http.MethodGet, "/v1/bestmove", ""},
		{"bad depth", http.MethodGet, "/v1/bestmove?fen=x&depth=abc", ""},
		{"depth zero", http.MethodGet, "/v1/bestmove?fen=x&depth=0", ""},
		{"depth too deep", http.MethodGet, "/v1/bestmove?fen=x&depth=41", ""},
		{"too many lines", http.MethodGet, "/v1/bestmove?fen=x&lines=6", ""},
		{"invalid fen", http.MethodGet, "/v1/bestmove?fen=not-a-fen", ""},
		{"bad json", http.MethodPost, "/v1/bestmove", "{"},
		{"negative lines", http.MethodPost, "/v1/bestmove", `{"fen":"x","lines":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.target, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)

			var e errorResponse
			decode(t, resp, &e)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, e.Error)
		})
	}
	assert.Empty(t, se.reqs)
}

func TestBestMoveUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, true)

	body, _ := json.Marshal(BestMoveRequest{FEN: startFEN})
	resp, err := http.Post(srv.URL+"/v1/bestmove", "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	var e errorResponse
	decode(t, resp, &e)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "analysis unavailable, check connectivity", e.Error)
}

func TestReview(t *testing.T) {
	srv, _ := newTestServer(t, false)

	body, _ := json.Marshal(ReviewRequest{FEN: startFEN, Move: "e2e4", Depth: 10})
	resp, err := http.Post(srv.URL+"/v1/review", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rv coach.Review
	decode(t, resp, &rv)
	assert.Equal(t, "e4", rv.MoveSAN)
	assert.Equal(t, coach.ClassBest, rv.Classification)

	body, _ = json.Marshal(ReviewRequest{FEN: startFEN, Move: "e2e5"})
	resp, err = http.Post(srv.URL+"/v1/review", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProvidersAndRouting(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/v1/providers")
	require.NoError(t, err)
	var out struct {
		Providers []string `json:"providers"`
	}
	decode(t, resp, &out)
	assert.Equal(t, []string{"chessapi", "stockfishonline", "multipv"}, out.Providers)

	resp, err = http.Get(srv.URL + "/v1/review")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/bestmove", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t, false)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "client-abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "client-abc-123", resp.Header.Get("X-Request-ID"))

	req.Header.Set("X-Request-ID", "bad id!")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, "bad id!", resp.Header.Get("X-Request-ID"))
}

func TestWebSocket(t *testing.T) {
	srv, _ := newTestServer(t, false)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"id":"1","fen":"`+startFEN+`","depth":12}`)))
	var reply wsReply
	require.NoError(t, c.ReadJSON(&reply))
	assert.Equal(t, "1", reply.ID)
	require.NotNil(t, reply.Analysis)
	assert.Equal(t, "e2e4", reply.Analysis.BestMove)
	assert.Empty(t, reply.Error)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"id":"2","fen":"junk"}`)))
	reply = wsReply{}
	require.NoError(t, c.ReadJSON(&reply))
	assert.Equal(t, "2", reply.ID)
	assert.Nil(t, reply.Analysis)
	assert.Contains(t, reply.Error, "invalid position")

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`nope`)))
	reply = wsReply{}
	require.NoError(t, c.ReadJSON(&reply))
	assert.Equal(t, "invalid JSON message", reply.Error)
}

func TestWebSocketUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, true)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteJSON(map[string]any{"id": "x", "fen": startFEN}))
	var reply wsReply
	require.NoError(t, c.ReadJSON(&reply))
	assert.Equal(t, "analysis unavailable, check connectivity", reply.Error)
}
