package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/gisportal/internal/adapters/nats"
	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
)

// wsMessage is sent from client to narrow or widen the usage feed.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Widget string `json:"widget"` // "" = every widget
}

// UsageFeedHandler returns a handler that relays live usage events from NATS
// to an admin's dashboard. Every widget is streamed until the client sends
// {"action":"subscribe","widget":"Sketch"}, which narrows the feed.
func UsageFeedHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		logger := slog.Default().With("remote", c.RemoteAddr().String())
		if sess, ok := c.Locals(sessionKey).(*domain.Session); ok {
			logger = logger.With("user", sess.Username)
		}
		logger.Info("usage feed connected")

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		write := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeJSON := func(v interface{}) {
			data, err := json.Marshal(v)
			if err == nil {
				_ = write(data)
			}
		}
		relay := func(msg *nats.Msg) {
			data, err := natsadapter.UsageJSON(msg.Data)
			if err != nil {
				logger.Warn("drop undecodable usage message", "subject", msg.Subject, "error", err)
				return
			}
			_ = write(data)
		}
		subscribe := func(subject string) error {
			if _, exists := subs[subject]; exists {
				return nil
			}
			s, err := nc.Subscribe(subject, relay)
			if err != nil {
				return err
			}
			subs[subject] = s
			return nil
		}
		unsubscribe := func(subject string) bool {
			s, exists := subs[subject]
			if exists {
				_ = s.Unsubscribe()
				delete(subs, subject)
			}
			return exists
		}

		if err := subscribe(natsadapter.UsageSubjectAll); err != nil {
			logger.Error("usage feed subscribe", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Widget != "" && !domain.ValidWidget(m.Widget) {
				writeJSON(map[string]string{"error": "invalid widget"})
				continue
			}

			subject := natsadapter.UsageSubjectAll
			if m.Widget != "" {
				subject = natsadapter.UsageSubject(m.Widget)
			}

			switch m.Action {
			case "subscribe":
				if subject == natsadapter.UsageSubjectAll {
					for s := range subs {
						unsubscribe(s)
					}
				} else {
					unsubscribe(natsadapter.UsageSubjectAll)
				}
				if err := subscribe(subject); err != nil {
					writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if unsubscribe(subject) {
					writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for s := range subs {
			unsubscribe(s)
		}
		logger.Info("usage feed disconnected")
	}
}
