package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jaminalder/tictactoe-rounds/internal/app"
)

const wsWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsIn is a message from the display.
type wsIn struct {
	Action string `json:"action"`
	Cell   int    `json:"cell"`
}

// wsOut is a message to the display: a frame or an error.
type wsOut struct {
	Type  string     `json:"type"`
	Frame *app.Frame `json:"frame,omitempty"`
	Error string     `json:"error,omitempty"`
}

func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	pid := ensurePlayerCookie(w, r)
	conn, err := upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		// Upgrade has already answered the request
		h.logger.Warn("websocket upgrade failed", "session", id, "error", err)
		return
	}
	defer conn.Close()

	log := h.logger.With("method", "ws", "session", id, "player", pid)
	log.Info("websocket connected")
	defer log.Info("websocket closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	frames, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	errs := make(chan error, 4)
	written := make(chan struct{})
	go func() {
		defer close(written)
		h.wsWrite(ctx, conn, frames, errs)
		cancel()
	}()

	report := func(err error) {
		select {
		case errs <- err:
		case <-ctx.Done():
		}
	}
	for {
		var in wsIn
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", "error", err)
			}
			break
		}
		log.Debug("websocket message", "action", in.Action, "cell", in.Cell)
		if err := h.dispatch(sess, in); err != nil {
			report(err)
		}
	}
	cancel()
	<-written
}

// dispatch applies one inbound message.
func (h *handlers) dispatch(sess *app.Session, in wsIn) error {
	switch in.Action {
	case "click":
		if err := checkCell(in.Cell); err != nil {
			return err
		}
		return h.play(sess, in.Cell)
	case "transitionend":
		if !sess.TransitionDone(in.Cell) {
			return fmt.Errorf("no transition pending on cell %d", in.Cell)
		}
	case "mode":
		sess.ToggleMode()
	default:
		return fmt.Errorf("unknown action %q", in.Action)
	}
	return nil
}

// wsWrite is the only writer of conn. It returns when ctx is done, the
// session goes away or a write fails.
func (h *handlers) wsWrite(ctx context.Context, conn *websocket.Conn, frames <-chan app.Frame, errs <-chan error) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	send := func(msg wsOut) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(msg) == nil
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case f, ok := <-frames:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(wsWriteWait))
				_ = conn.Close()
				return
			}
			if !send(wsOut{Type: "frame", Frame: &f}) {
				return
			}
		case err := <-errs:
			if !send(wsOut{Type: "error", Error: err.Error()}) {
				return
			}
		}
	}
}
