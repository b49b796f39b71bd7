package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"nftstaking/core/events"
	"nftstaking/core/types"
	"nftstaking/crypto"
	"nftstaking/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsQueueSize    = 64
)

// streamEmitter forwards committed events to one websocket client. Events are
// dropped while the client lags behind.
type streamEmitter struct {
	config string
	out    chan *types.Event
}

func (e *streamEmitter) Emit(evt events.Event) {
	payload, ok := evt.(events.Payload)
	if !ok {
		return
	}
	flat := payload.Event()
	if flat == nil {
		return
	}
	if e.config != "" && flat.Attributes["config"] != e.config {
		return
	}
	select {
	case e.out <- flat.Clone():
	default:
		observability.API().StreamDropped()
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.URL.Query().Get("config"))
	if filter != "" {
		id, err := parseAddress(filter, crypto.AccountPrefix)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		filter = accountString(id)
	}
	// Subscribe before the handshake completes so a client sees every commit
	// made after Dial returns.
	sub := &streamEmitter{config: filter, out: make(chan *types.Event, wsQueueSize)}
	unsubscribe := s.node.Subscribe(sub)
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	defer observability.API().StreamOpened()()

	// The client never sends; CloseRead surfaces its disconnect as ctx.Done.
	ctx := conn.CloseRead(r.Context())
	if err := streamEvents(ctx, conn, sub.out); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func streamEvents(ctx context.Context, conn *websocket.Conn, updates <-chan *types.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-updates:
			data, err := json.Marshal(evt)
			if err != nil {
				return err
			}
			writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
