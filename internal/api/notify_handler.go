package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/events"
	"github.com/dhbtk/webtarot/internal/platform/logger"
	"github.com/dhbtk/webtarot/internal/service"
)

// wsIDPayload is the body of both inbound and outbound WebSocket messages.
type wsIDPayload struct {
	UUID uuid.UUID `json:"uuid"`
}

// wsMessage is the WebSocket envelope. Inbound carries Subscribe, outbound
// carries Done. Exactly one side is set.
type wsMessage struct {
	Subscribe *wsIDPayload `json:"subscribe,omitempty"`
	Done      *wsIDPayload `json:"done,omitempty"`
}

// NotifyHandler pushes interpretation completion over a WebSocket. Clients
// subscribe to the reading ids they are waiting on; the payload carries no
// text, they re-fetch through the lookup endpoint.
type NotifyHandler struct {
	interpretations service.InterpretationService
	broadcaster     *events.Broadcaster
	upgrader        websocket.Upgrader
	logger          *slog.Logger
}

// NewNotifyHandler creates a new NotifyHandler with the given dependencies.
func NewNotifyHandler(
	interpretations service.InterpretationService,
	broadcaster *events.Broadcaster,
	log *slog.Logger,
) *NotifyHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotifyHandler{
		interpretations: interpretations,
		broadcaster:     broadcaster,
		upgrader: websocket.Upgrader{
			// Identity was already established by the middleware; the API
			// is served same-origin behind a reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.With(slog.String("component", "notify_handler")),
	}
}

// Notify handles GET /api/v1/interpretation/notify.
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	// The handshake must echo the subprotocol the client tunneled its
	// credentials through.
	var responseHeader http.Header
	if proto := r.Header.Get("Sec-WebSocket-Protocol"); proto != "" {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": {proto}}
	}

	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	updates, cancel := h.broadcaster.Subscribe()
	defer cancel()

	// Reading ids this connection asked to be notified about. Written by
	// the read loop, read by the write loop.
	var mu sync.RWMutex
	subscribed := make(map[uuid.UUID]struct{})

	// Terminal states discovered during subscribe are replayed to this
	// connection without a round trip through the broadcaster.
	direct := make(chan domain.Interpretation, 4)
	readerDone := make(chan struct{})

	go func() {
		for {
			select {
			case interp, open := <-updates:
				if !open {
					_ = conn.Close()
					return
				}
				mu.RLock()
				_, wanted := subscribed[interp.Reading.ID]
				mu.RUnlock()
				if !wanted {
					continue
				}
				if h.writeDone(conn, log, interp.Reading.ID) != nil {
					return
				}
			case interp := <-direct:
				if h.writeDone(conn, log, interp.Reading.ID) != nil {
					return
				}
			case <-readerDone:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Subscribe == nil {
			log.Debug("ignoring unrecognized websocket message")
			continue
		}
		id := msg.Subscribe.UUID

		interp, err := h.interpretations.GetInterpretation(r.Context(), id, identity)
		if err != nil {
			log.Debug("subscribe to unknown reading", "reading_id", id)
			continue
		}
		if !interp.Reading.OwnedBy(identity.ID) {
			log.Warn("subscribe to someone else's reading",
				"reading_id", id,
				"user_id", identity.ID)
			continue
		}

		if interp.Terminal() {
			// Completion raced the subscribe; notify right away.
			select {
			case direct <- *interp:
			default:
			}
			continue
		}

		mu.Lock()
		subscribed[id] = struct{}{}
		mu.Unlock()
		log.Debug("subscribed to reading", "reading_id", id)
	}

	close(readerDone)
}

func (h *NotifyHandler) writeDone(conn *websocket.Conn, log *slog.Logger, id uuid.UUID) error {
	err := conn.WriteJSON(wsMessage{Done: &wsIDPayload{UUID: id}})
	if err != nil {
		log.Debug("websocket send failed, dropping connection", "error", err)
		// Closing the connection unblocks the read loop as well.
		_ = conn.Close()
	}
	return err
}
