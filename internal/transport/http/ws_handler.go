package http

import (
	"net/http"
	"time"

	"edustop-service/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

type WSHandler struct {
	ranking  *app.RankingService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(ranking *app.RankingService, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		ranking: ranking,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "ws_ranking").Logger(),
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams the ranking: one "ranking" snapshot of the top page,
// then a "reward" message per rewarded task.
func (h *WSHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.ranking.Subscribe()
	defer cancel()

	// The reader only detects the peer going away; inbound frames are ignored.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot, err := h.ranking.Page(c.Request.Context(), 0, app.DefaultRankingPageSize)
	if err != nil {
		_ = h.write(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if err := h.write(conn, outboundMessage[any]{Type: "ranking", Payload: snapshot}); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, outboundMessage[any]{Type: "reward", Payload: ev}); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-readerDone:
			return
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, msg interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}

// originChecker allows every origin when the list is empty.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
