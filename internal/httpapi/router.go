package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freeeve/chesscoach/internal/coach"
)

const (
	defaultDepth = 15
	maxDepth     = 40
	defaultLines = 1
	maxLines     = 5
)

// Coach is implemented by *coach.Service.
type Coach interface {
	Analyze(ctx context.Context, fen string, depth, lines int) (*coach.Analysis, error)
	Review(ctx context.Context, fen, uci string, depth int) (*coach.Review, error)
}

// Handler serves the analysis API.
type Handler struct {
	coach     Coach
	providers []string
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// NewRouter creates the HTTP router. providers is the configured provider
// order, reported by /v1/providers.
func NewRouter(log zerolog.Logger, c Coach, providers []string) http.Handler {
	h := &Handler{
		coach:     c,
		providers: providers,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.HandleFunc("/readyz", h.health).Methods(http.MethodGet)
	router.HandleFunc("/v1/bestmove", h.bestMoveQuery).Methods(http.MethodGet)
	router.HandleFunc("/v1/bestmove", h.bestMoveBody).Methods(http.MethodPost)
	router.HandleFunc("/v1/review", h.review).Methods(http.MethodPost)
	router.HandleFunc("/v1/providers", h.listProviders).Methods(http.MethodGet)
	router.HandleFunc("/v1/ws", h.ws)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return CORS(RequestID(AccessLog(log, router)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.providers})
}

// BestMoveRequest is the POST /v1/bestmove body.
type BestMoveRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
	Lines int    `json:"lines"`
}

// ReviewRequest is the POST /v1/review body.
type ReviewRequest struct {
	FEN   string `json:"fen"`
	Move  string `json:"move"`
	Depth int    `json:"depth"`
}

func (h *Handler) bestMoveQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	depth, err := intParam(q.Get("depth"), "depth", defaultDepth, maxDepth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lines, err := intParam(q.Get("lines"), "lines", defaultLines, maxLines)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.bestMove(w, r, BestMoveRequest{FEN: q.Get("fen"), Depth: depth, Lines: lines})
}

func (h *Handler) bestMoveBody(w http.ResponseWriter, r *http.Request) {
	var req BestMoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.bestMove(w, r, req)
}

func (h *Handler) bestMove(w http.ResponseWriter, r *http.Request, req BestMoveRequest) {
	if err := req.normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.coach.Analyze(r.Context(), req.FEN, req.Depth, req.Lines)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FEN) == "" || strings.TrimSpace(req.Move) == "" {
		writeError(w, http.StatusBadRequest, "fen and move are required")
		return
	}
	depth, err := checkRange("depth", req.Depth, defaultDepth, maxDepth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rv, err := h.coach.Review(r.Context(), req.FEN, req.Move, depth)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("analysis failed")
	}
	writeError(w, status, msg)
}

func (req *BestMoveRequest) normalize() error {
	if strings.TrimSpace(req.FEN) == "" {
		return fmt.Errorf("missing fen")
	}
	var err error
	if req.Depth, err = checkRange("depth", req.Depth, defaultDepth, maxDepth); err != nil {
		return err
	}
	req.Lines, err = checkRange("lines", req.Lines, defaultLines, maxLines)
	return err
}

// checkRange applies def to zero and rejects values outside 1..max.
func checkRange(name string, v, def, max int) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 1 || v > max {
		return 0, fmt.Errorf("%s must be between 1 and %d", name, max)
	}
	return v, nil
}

// intParam parses an optional query parameter; unlike JSON bodies an explicit
// zero is out of range.
func intParam(s, name string, def, max int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s must be between 1 and %d", name, max)
	}
	return checkRange(name, n, def, max)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}
