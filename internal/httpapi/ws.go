package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freeeve/chesscoach/internal/coach"
)

// wsRequest is one analysis request over the socket.
type wsRequest struct {
	ID string `json:"id"`
	BestMoveRequest
}

type wsReply struct {
	ID       string          `json:"id"`
	Analysis *coach.Analysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ws answers analysis requests in the order they arrive until the client
// goes away.
func (h *Handler) ws(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	defer c.Close()

	log := zerolog.Ctx(r.Context())
	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		reply := h.wsAnswer(r, data)
		bytes, err := json.Marshal(reply)
		if err != nil {
			log.Error().Err(err).Msg("websocket: json marshal")
			return
		}
		if err := c.WriteMessage(websocket.TextMessage, bytes); err != nil {
			log.Debug().Err(err).Msg("websocket write")
			return
		}
	}
}

func (h *Handler) wsAnswer(r *http.Request, data []byte) wsReply {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsReply{Error: "invalid JSON message"}
	}
	reply := wsReply{ID: req.ID}
	if err := req.normalize(); err != nil {
		reply.Error = err.Error()
		return reply
	}
	a, err := h.coach.Analyze(r.Context(), req.FEN, req.Depth, req.Lines)
	if err != nil {
		_, reply.Error = errorStatus(err)
		return reply
	}
	reply.Analysis = a
	return reply
}
