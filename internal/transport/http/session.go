// internal/transport/http/session.go
package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"backcheck-service/internal/guard"
	"backcheck-service/internal/middleware"
	"backcheck-service/internal/session"
	"backcheck-service/internal/sse"
)

const (
	eventSession   = "session"
	eventReady     = "ready"
	heartbeatEvery = 30 * time.Second
)

// sessionView is the snapshot plus what the UI shell derives from it.
type sessionView struct {
	session.Snapshot
	State guard.State `json:"state"`
	Home  string      `json:"home"`
}

func newSessionView(snap session.Snapshot) sessionView {
	state := guard.StateOf(snap)
	return sessionView{
		Snapshot: snap,
		State:    state,
		Home:     guard.HomeRoute(state.Role()),
	}
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	return c.JSON(newSessionView(middleware.SessionFromContext(c).Current()))
}

// Navigate runs the route guard for one navigation attempt. For a signed-in
// principal landing on an auth page, ?redirect= is honoured the way sign-in
// honours it. Cross-role bounces always land on the role home.
func (h *Handler) Navigate(c *fiber.Ctx) error {
	state := guard.StateOf(middleware.SessionFromContext(c).Current())
	d := guard.Decide(state, c.Query("path", guard.LandingRoute))

	if requested := c.Query("redirect"); requested != "" && state.Role() != "" && guard.IsAuthRoute(d.Path) {
		d.Redirect = guard.SignInRedirect(state.Role(), requested)
	}
	return c.JSON(d)
}

func formatEvent(name string, data interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload), nil
}

// SessionEvents streams the caller's session snapshots. The stream owns the
// request's session store: auth transitions published for this principal
// re-resolve it, and every change is written as a "session" event.
func (h *Handler) SessionEvents(c *fiber.Ctx) error {
	uid, _ := middleware.GetUserIDFromContext(c)
	store := middleware.SessionFromContext(c)
	connStart := time.Now()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	c.Set("Transfer-Encoding", "chunked")

	snaps := make(chan session.Snapshot, 8)
	cancelSub := store.Subscribe(func(s session.Snapshot) {
		select {
		case snaps <- s:
		default:
			log.Printf("⚠️ [SSE] snapshot dropped for user=%s", uid)
		}
	})

	clientChan := make(chan sse.Event, 10)
	h.broker.Register(uid, clientChan)
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancelSub()
			h.broker.Unregister(uid, clientChan)
			log.Printf("🔌 [SSE] 🔴 Connection CLOSED for user=%s after %v", uid, time.Since(connStart))
		}()

		send := func(name string, data interface{}) bool {
			msg, err := formatEvent(name, data)
			if err != nil {
				log.Printf("⚠️ [SSE] Failed to marshal %s: %v", name, err)
				return true
			}
			if _, err := w.WriteString(msg); err != nil {
				log.Printf("⚠️ [SSE] Write error for user=%s: %v", uid, err)
				return false
			}
			if err := w.Flush(); err != nil {
				log.Printf("⚠️ [SSE] Flush error for user=%s: %v", uid, err)
				return false
			}
			return true
		}

		if !send(eventSession, newSessionView(store.Current())) {
			return
		}
		if !send(eventReady, fiber.Map{"status": "ready", "at": time.Now().Format(time.RFC3339Nano)}) {
			return
		}

		heartbeat := time.NewTicker(heartbeatEvery)
		defer heartbeat.Stop()

		for {
			select {
			case <-done:
				return

			case snap := <-snaps:
				if !send(eventSession, newSessionView(snap)) {
					return
				}

			case event, ok := <-clientChan:
				if !ok {
					return
				}
				if event.State != nil {
					h.applyStateChange(store, event)
					continue
				}
				if !send(event.Type, event.Data) {
					return
				}

			case <-heartbeat.C:
				if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

func (h *Handler) applyStateChange(store *session.Store, event sse.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := store.HandleStateChange(ctx, *event.State); err != nil {
		log.Printf("⚠️ [SSE] session refresh failed for user=%s: %v", event.UID, err)
	}
}
