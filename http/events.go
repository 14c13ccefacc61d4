// http/events.go
package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const keepAliveInterval = 25 * time.Second

// HandleEvents streams change events as server-sent events until the client
// goes away or the hub stops.
func (s *Server) HandleEvents(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	msgs, cancel := s.hub.Subscribe()
	log := s.log

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				data, err := json.Marshal(msg)
				if err != nil {
					log.Error().Err(err).Str("type", msg.Type).Msg("encode event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Debug().Err(err).Msg("event stream closed")
				return
			}
		}
	})
	return nil
}
