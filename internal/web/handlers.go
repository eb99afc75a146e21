package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-rounds/internal/app"
	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

var errBadIndex = errors.New("cell index must be a number between 0 and 8")

type handlers struct {
	svc       *app.Service
	tpl       *templates
	logger    *slog.Logger
	baseCtx   context.Context
	heartbeat time.Duration
}

// statusFor maps service and domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadIndex), errors.Is(err, domain.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCellOccupied),
		errors.Is(err, app.ErrInputLatched),
		errors.Is(err, app.ErrRoundAborted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), code)
}

func (h *handlers) writeHTML(w http.ResponseWriter, t *template.Template, name string, data any) {
	b, err := renderTemplate(t, name, data)
	if err != nil {
		h.fail(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// session resolves the {id} URL parameter.
func (h *handlers) session(r *http.Request) (*app.Session, error) {
	sess, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		return nil, app.ErrNotFound
	}
	return sess, nil
}

func cellIndex(r *http.Request) (int, error) {
	return parseCell(chi.URLParam(r, "index"))
}

func parseCell(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errBadIndex
	}
	return i, checkCell(i)
}

func checkCell(i int) error {
	if i < 0 || i >= domain.Size {
		return errBadIndex
	}
	return nil
}

// play places the clicked mark and leaves the wait for its transition, which
// arrives on a separate request, to a background goroutine. Rejections are
// returned before anything runs in the background.
func (h *handlers) play(sess *app.Session, index int) error {
	m, err := sess.StartClick(index)
	if err != nil || m == nil {
		return err
	}
	go func() {
		err := m.Wait(h.baseCtx)
		switch {
		case err == nil, errors.Is(err, app.ErrRoundAborted):
		case errors.Is(err, context.Canceled):
			h.logger.Info("move abandoned", "session", sess.ID, "cell", m.Cell())
		default:
			h.logger.Error("move failed", "session", sess.ID, "cell", m.Cell(), "error", err)
		}
	}()
	return nil
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, h.tpl.index, "base", nil)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok %d\n", h.svc.Count())
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CreateSession()
	if err != nil {
		h.fail(w, fmt.Errorf("create session: %w", err))
		return
	}
	h.logger.Info("session opened", "session", sess.ID, "player", ensurePlayerCookie(w, r))
	http.Redirect(w, r, "/session/"+sess.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)

	frame, ok := h.svc.Frame(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.logger.Debug("page served", "session", id, "player", pid)
	h.writeHTML(w, h.tpl.game, "base", viewData{ID: id, Frame: frame})
}

func (h *handlers) click(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	index, err := cellIndex(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err = h.play(sess, index); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) transitionEnd(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	index, err := cellIndex(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !sess.TransitionDone(index) {
		http.Error(w, fmt.Sprintf("no transition pending on cell %d", index), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) toggleMode(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	sess.ToggleMode()
	frame, ok := h.svc.Frame(sess.ID)
	if !ok {
		h.fail(w, app.ErrNotFound)
		return
	}
	h.writeHTML(w, h.tpl.base, "scoreboard", viewData{ID: sess.ID, Frame: frame})
}

// writeEvent writes one server-sent event, prefixing every line of data.
func writeEvent(w io.Writer, event string, data []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteString("\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// Plain requests only get the headers
	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	frames, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer unsub()

	log := h.logger.With("method", "events", "session", id)
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case f, ok := <-frames:
			if !ok {
				return
			}
			data := viewData{ID: id, Frame: f}
			if first || f.Kind == app.FrameScoreboard {
				if err := h.emit(w, "scoreboard", data); err != nil {
					log.Warn("event stream closed", "error", err)
					return
				}
			}
			first = false
			if f.Kind != app.FrameScoreboard {
				if err := h.emit(w, "board", data); err != nil {
					log.Warn("event stream closed", "error", err)
					return
				}
			}
			flusher.Flush()
		}
	}
}

func (h *handlers) emit(w io.Writer, fragment string, data viewData) error {
	b, err := renderTemplate(h.tpl.base, fragment, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", fragment, err)
	}
	return writeEvent(w, fragment, b)
}
