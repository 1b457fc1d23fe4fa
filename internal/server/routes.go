package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/signaling"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// The signaling protocol carries no credentials and rooms are
	// unguessable codes, so cross-origin websockets are allowed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
	Timestamp   string `json:"timestamp"`
}

// NewRouter wires the health endpoint and the websocket upgrade.
func NewRouter(hub *signaling.Hub, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(hub))
	r.Get("/ws", serveWS(hub, log))

	return r
}

func healthHandler(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, connections := hub.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:      "ok",
			Rooms:       rooms,
			Connections: connections,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// serveWS upgrades the connection and hands it to the hub.
func serveWS(hub *signaling.Hub, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}

		connLog := log.With().Str("conn", uuid.NewString()[:8]).Logger()
		signaling.NewClient(hub, conn, connLog).Start()
	}
}
