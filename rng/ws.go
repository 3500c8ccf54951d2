package rng

import (
	"errors"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// StreamHandler serves GET /rng/ws: a websocket where every received frame
// requests one fresh value and the server answers {"random": v}. Degraded
// entropy answers {"error": ...} on the same socket instead of closing it,
// so clients can simply retry.
func StreamHandler(engine *Engine, allowedOrigins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: allowedOrigins,
		})
		if err != nil {
			log.Printf("[%s] rng socket: upgrade failed: %s", r.RemoteAddr, err)
			return
		}
		defer c.CloseNow()

		ctx := r.Context()
		for {
			// any frame from the client requests the next value
			if _, _, err := c.Read(ctx); err != nil {
				// normal closure or connection gone
				return
			}

			value, err := engine.Random(ctx)
			if err != nil {
				if !errors.Is(err, ErrDegraded) {
					log.Printf("ERR: rng socket [%s]: %s", r.RemoteAddr, err)
				}
				if err := wsjson.Write(ctx, c, map[string]string{"error": err.Error()}); err != nil {
					return
				}
				continue
			}

			if err := wsjson.Write(ctx, c, map[string]float64{"random": value}); err != nil {
				return
			}
		}
	}
}
